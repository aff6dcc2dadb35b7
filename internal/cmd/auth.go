package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the WebTray backend",
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		fmt.Printf("🔐 Signing in to %s...\n", a.cfg.API.BaseURL)
		user, err := a.session.Login(ctx, a.client, loginEmail, loginPassword)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		fmt.Printf("✅ Signed in as %s <%s>\n", user.Name, user.Email)
		if storeID, ok := a.session.ActiveStoreID(); ok {
			fmt.Printf("🏪 Active store: %d\n", storeID)
		} else {
			fmt.Println("💡 Run 'webtray store list' and 'webtray store use <id>' to pick a store")
		}
		return nil
	}),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the active store",
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		if err := a.session.Logout(ctx); err != nil {
			return err
		}
		a.cache.Clear()
		fmt.Println("👋 Signed out")
		return nil
	}),
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user and active store",
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		s := a.session.Current()
		if !a.session.Authenticated() {
			fmt.Println("Not signed in")
			return nil
		}
		fmt.Printf("👤 %s <%s>\n", s.User.Name, s.User.Email)
		if s.ActiveStoreID > 0 {
			fmt.Printf("🏪 Active store: %d\n", s.ActiveStoreID)
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)

	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password")
	loginCmd.MarkFlagRequired("email")
	loginCmd.MarkFlagRequired("password")
}
