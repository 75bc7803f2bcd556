package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/verdantlabs/gardensync/internal/agent/signer"
)

// getSimpleText and getToken are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getToken = GetToken

// Login reads a session token from the terminal, validates it against the
// configured secret and stores the parsed session for the queue manager.
// The token is issued out of band by the operator portal; the agent never
// sees credentials, only the signed session.
func (a *App) Login(ctx context.Context) error {
	token, err := getToken(os.Stdout)
	if err != nil {
		return err
	}

	sess, err := signer.ParseSession(string(token), []byte(a.config.SessionSecret))
	if err != nil {
		return err
	}

	a.setSession(sess)
	a.log.Info(ctx, "session established", "account", sess.Account, "gardener", sess.GardenerID)
	fmt.Printf("Logged in as %s (account %s)\n", sess.GardenerID, sess.Account)
	return nil
}

// Logout forgets the session. Queued jobs stay in the local queue and
// resume once a fresh session is established.
func (a *App) Logout(ctx context.Context) error {
	a.setSession(nil)
	a.log.Info(ctx, "session cleared")
	fmt.Println("Logged out")
	return nil
}
