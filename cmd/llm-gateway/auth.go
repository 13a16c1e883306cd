package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jkh/llm-gateway/pkg/gwerrors"
	"github.com/jkh/llm-gateway/pkg/logger"
	"github.com/jkh/llm-gateway/pkg/oauth"
	"github.com/jkh/llm-gateway/pkg/pkce"
	"github.com/jkh/llm-gateway/pkg/tokenstore"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate to a provider via OAuth with PKCE",
	Long: `Authenticate to Anthropic (Claude Max/Pro) or OpenAI (ChatGPT
Plus/Pro) via an interactive OAuth-with-PKCE flow, and persist the
resulting token bundle to disk.`,
	Run: func(cmd *cobra.Command, _ []string) {
		providerFlag, _ := cmd.Flags().GetString("provider")
		longTerm, _ := cmd.Flags().GetBool("long-term")
		provider, ok := parseProvider(providerFlag)
		if !ok {
			fail(gwerrors.ClientMalformed("provider", "provider must be one of: anthropic, chatgpt"))
		}
		if longTerm && provider != oauth.ProviderAnthropic {
			fail(gwerrors.ClientMalformed("long-term", "long-term tokens are only available for Anthropic"))
		}
		if err := runLogin(cmd.Context(), provider, longTerm); err != nil {
			fail(err)
		}
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Force a refresh of the stored token bundle",
	Run: func(cmd *cobra.Command, _ []string) {
		providerFlag, _ := cmd.Flags().GetString("provider")
		provider, ok := parseProvider(providerFlag)
		if !ok {
			fail(gwerrors.ClientMalformed("provider", "provider must be one of: anthropic, chatgpt"))
		}
		if err := runRefresh(cmd.Context(), provider); err != nil {
			fail(err)
		}
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored token bundle for a provider",
	Run: func(cmd *cobra.Command, _ []string) {
		providerFlag, _ := cmd.Flags().GetString("provider")
		provider, ok := parseProvider(providerFlag)
		if !ok {
			fail(gwerrors.ClientMalformed("provider", "provider must be one of: anthropic, chatgpt"))
		}
		noConfirm, _ := cmd.Flags().GetBool("no-confirm")
		if err := runLogout(cmd.Context(), provider, noConfirm); err != nil {
			fail(err)
		}
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication status for both providers",
	Run: func(cmd *cobra.Command, _ []string) {
		runStatus(cmd.Context())
	},
}

var setupTokenCmd = &cobra.Command{
	Use:   "setup-token",
	Short: "Issue a long-term Anthropic token for headless use",
	Long: `Run the Anthropic OAuth flow with the long-term scope
(user:inference only) and persist a token_type=long_term bundle with no
refresh token — suited for seeding ANTHROPIC_OAUTH_TOKEN in a headless
deployment.`,
	Run: func(cmd *cobra.Command, _ []string) {
		if err := runLogin(cmd.Context(), oauth.ProviderAnthropic, true); err != nil {
			fail(err)
		}
	},
}

func init() {
	loginCmd.Flags().String("provider", "anthropic", "Provider to authenticate (anthropic, chatgpt)")
	loginCmd.Flags().Bool("long-term", false, "Request a long-term Anthropic token (no refresh token)")
	refreshCmd.Flags().String("provider", "anthropic", "Provider to refresh (anthropic, chatgpt)")
	logoutCmd.Flags().String("provider", "anthropic", "Provider to log out (anthropic, chatgpt)")
	logoutCmd.Flags().Bool("no-confirm", false, "Skip the confirmation prompt")
}

func runLogin(ctx context.Context, provider oauth.ProviderName, longTerm bool) error {
	profile := profileFor(provider)
	client := oauth.NewClient(profile)
	engine := pkce.NewEngine("")

	params, err := pkce.Generate()
	if err != nil {
		return err
	}
	if err := engine.Persist(params.Verifier, params.Verifier); err != nil {
		logger.G(ctx).WithError(err).Warn("auth: failed to persist PKCE state")
	}

	authURL := client.BuildAuthorizeURL(params.Challenge, params.Verifier, longTerm)

	fmt.Println("OAuth Login")
	fmt.Println("===========")
	fmt.Println()
	fmt.Println("Opening your browser for authentication...")
	if err := openBrowser(authURL); err != nil {
		fmt.Println("Could not open a browser automatically. Visit this URL:")
	} else {
		fmt.Println("If your browser didn't open automatically, visit this URL:")
	}
	fmt.Printf("\n   %s\n\n", authURL)

	reader := bufio.NewReader(os.Stdin)
	fmt.Print("Enter the authorization code: ")
	code, err := reader.ReadString('\n')
	if err != nil {
		return gwerrors.Internal("auth: read authorization code", err)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return gwerrors.ClientMalformed("code", "authorization code cannot be empty")
	}

	fmt.Println()
	fmt.Println("Exchanging authorization code for an access token...")
	bundle, err := client.Exchange(ctx, code, params.Verifier, longTerm)
	if err != nil {
		return err
	}

	if err := engine.Clear(); err != nil {
		logger.G(ctx).WithError(err).Warn("auth: failed to clear PKCE state")
	}

	store := storeFor(provider)
	if err := store.Save(ctx, bundle); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Authentication successful.")
	fmt.Printf("Token type: %s\n", bundle.TokenType)
	if bundle.AccountID != "" {
		fmt.Printf("Account: %s\n", bundle.AccountID)
	}
	fmt.Printf("Saved to: %s\n", tokenPath(provider))
	return nil
}

func runRefresh(ctx context.Context, provider oauth.ProviderName) error {
	store := storeFor(provider)
	bundle, err := store.Load(ctx)
	if err != nil {
		return err
	}
	if bundle == nil {
		return gwerrors.AuthAbsent("no stored token; run 'login' first")
	}
	if bundle.TokenType == tokenstore.TokenTypeLongTerm {
		return gwerrors.AuthExpired("long-term tokens cannot be refreshed; run 'setup-token' to issue a new one", nil)
	}

	client := oauth.NewClient(profileFor(provider))
	refreshed, err := client.Refresh(ctx, bundle.RefreshToken)
	if err != nil {
		return err
	}
	if err := store.Save(ctx, refreshed); err != nil {
		return err
	}
	fmt.Println("Token refreshed.")
	return nil
}

func runLogout(ctx context.Context, provider oauth.ProviderName, noConfirm bool) error {
	store := storeFor(provider)
	status, err := store.Status(ctx)
	if err != nil {
		return err
	}
	if !status.Present {
		fmt.Println("No stored token. Already logged out.")
		return nil
	}

	if !noConfirm {
		reader := bufio.NewReader(os.Stdin)
		fmt.Printf("Remove the stored %s token? (y/N): ", provider)
		resp, _ := reader.ReadString('\n')
		resp = strings.ToLower(strings.TrimSpace(resp))
		if resp != "y" && resp != "yes" {
			fmt.Println("Logout cancelled.")
			return nil
		}
	}

	if err := store.Clear(ctx); err != nil {
		return err
	}
	fmt.Printf("Removed stored %s token.\n", provider)
	return nil
}

func runStatus(ctx context.Context) {
	printStatus(ctx, "Anthropic", oauth.ProviderAnthropic)
	fmt.Println()
	printStatus(ctx, "ChatGPT", oauth.ProviderOpenAI)
}

func printStatus(ctx context.Context, label string, provider oauth.ProviderName) {
	store := storeFor(provider)
	status, err := store.Status(ctx)
	fmt.Printf("%s:\n", label)
	if err != nil {
		fmt.Printf("  error: %s\n", err)
		return
	}
	if !status.Present {
		fmt.Println("  not authenticated")
		return
	}
	fmt.Printf("  type: %s\n", status.Type)
	fmt.Printf("  expired: %v\n", status.Expired)
	fmt.Printf("  expires at: %s\n", time.Unix(status.ExpiresAt, 0).Format(time.RFC3339))
	fmt.Printf("  time remaining: %s\n", status.TimeRemaining.Round(time.Second))
}
