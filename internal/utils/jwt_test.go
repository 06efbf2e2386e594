package utils

import (
    "testing"
    "time"

    "github.com/golang-jwt/jwt/v5"

    "github.com/1wflores/amenity-reservations/internal/model"
)

func TestAccessTokenRoundTrip(t *testing.T) {
    tok, err := NewAccessToken("s3cret", 42, model.RoleAdmin, 15*time.Minute)
    if err != nil {
        t.Fatalf("NewAccessToken: %v", err)
    }
    claims, err := ParseAccessToken("s3cret", tok.Token)
    if err != nil {
        t.Fatalf("ParseAccessToken: %v", err)
    }
    actor, err := claims.Actor()
    if err != nil {
        t.Fatalf("Actor: %v", err)
    }
    if actor.UserID != 42 || !actor.IsAdmin() {
        t.Fatalf("actor = %+v", actor)
    }
}

func TestParseAccessTokenRejects(t *testing.T) {
    good, _ := NewAccessToken("s3cret", 1, model.RoleResident, time.Minute)
    if _, err := ParseAccessToken("other", good.Token); err == nil {
        t.Error("wrong secret accepted")
    }
    expired, _ := NewAccessToken("s3cret", 1, model.RoleResident, -time.Minute)
    if _, err := ParseAccessToken("s3cret", expired.Token); err == nil {
        t.Error("expired token accepted")
    }
    none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "1", "exp": time.Now().Add(time.Hour).Unix()}).
        SignedString(jwt.UnsafeAllowNoneSignatureType)
    if _, err := ParseAccessToken("s3cret", none); err == nil {
        t.Error("unsigned token accepted")
    }
}

func TestClaimsActorRequiresNumericSubject(t *testing.T) {
    c := &Claims{Role: model.RoleResident, RegisteredClaims: jwt.RegisteredClaims{Subject: "bob"}}
    if _, err := c.Actor(); err == nil {
        t.Fatal("non-numeric subject accepted")
    }
}

func TestRefreshTokenHash(t *testing.T) {
    rt, err := NewRefreshToken(7)
    if err != nil {
        t.Fatalf("NewRefreshToken: %v", err)
    }
    if len(rt.Raw) != 96 {
        t.Fatalf("raw length = %d", len(rt.Raw))
    }
    h := HashRefreshRaw(rt.Raw)
    if len(h) != 64 || h != HashRefreshRaw(rt.Raw) {
        t.Fatal("hash must be a stable 64 char hex digest")
    }
}

func TestPasswordHashing(t *testing.T) {
    hash, err := HashPassword("correct horse", 4)
    if err != nil {
        t.Fatalf("HashPassword: %v", err)
    }
    if !VerifyPassword(hash, "correct horse") || VerifyPassword(hash, "wrong") {
        t.Fatal("VerifyPassword mismatch")
    }
}
