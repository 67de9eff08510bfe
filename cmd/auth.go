package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

// AuthLogin signs in with email and password and saves the session locally.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	email := cmd.String("email")
	password := cmd.String("password")
	persist := !cmd.Bool("no-persist")

	r.logger.Debug("signing in", "email", email, "persist", persist)

	user, err := r.store.SignIn(ctx, email, password, persist)
	if err != nil {
		return err
	}

	return r.writePlain("✓ Signed in as %s\n", user.Email)
}

// AuthSignup creates a new account. Providers that require email confirmation
// issue no session; the user is told to check their inbox.
func (r *Runner) AuthSignup(ctx context.Context, cmd *cli.Command) error {
	email := cmd.String("email")
	password := cmd.String("password")
	persist := !cmd.Bool("no-persist")

	user, err := r.store.SignUp(ctx, email, password, persist)
	if err != nil {
		return err
	}

	if user == nil {
		return r.writePlain("✓ Account created, check your email to confirm\n")
	}
	return r.writePlain("✓ Signed up as %s\n", user.Email)
}

// AuthLogout signs out and clears the saved session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.store.SignOut(ctx); err != nil {
		r.logger.Warn("provider sign-out failed, local session cleared", "error", err)
	}
	return r.writePlain("✓ Signed out\n")
}

// AuthStatus resolves and reports the current session state.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	snap := r.store.Resolve(ctx)

	if cmd.Bool("json") {
		status := map[string]any{"authenticated": snap.User != nil}
		if snap.User != nil {
			status["email"] = snap.User.Email
			status["user_id"] = snap.User.ID
		}
		return r.writeJSON(status, true)
	}

	if snap.User == nil {
		return r.writePlain("✗ Not signed in\n")
	}
	return r.writePlain("✓ Signed in as %s\n", snap.User.Email)
}
