package cli

import (
	"context"
	"log"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

// Login stores the access token for the session. Tokens are issued by the
// platform's account service; the CLI only carries one. The user id is taken
// from the token's subject claim — the relay verifies the signature, the
// client just needs the identity for rendering.
func (a *App) Login(ctx context.Context) error {

	token, err := GetSimpleText(a.reader, "Paste your access token", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	userID, err := subjectOf(token)
	if err != nil {
		log.Printf("Login unsuccessfull: %s", err.Error())
		return err
	}

	a.userID = userID
	a.transport.SetToken(token)
	a.connectRealtime(ctx, token)

	log.Printf("Login successfull")
	return nil
}

// Logout drops the session state. Conversation keys stay in the local store.
func (a *App) Logout(ctx context.Context) error {
	a.disconnectRealtime()
	a.transport.SetToken("")
	a.userID = ""
	a.current = nil
	a.lastItems = nil
	return nil
}

// subjectOf extracts the subject claim without verifying the signature.
func subjectOf(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", jwt.ErrTokenInvalidSubject
	}
	return claims.Subject, nil
}
