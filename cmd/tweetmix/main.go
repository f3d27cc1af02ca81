// Package main provides the tweetmix CLI entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/gauthierbraillon/tweetmix/internal/config"
	"github.com/gauthierbraillon/tweetmix/internal/display"
	"github.com/gauthierbraillon/tweetmix/internal/logging"
	"github.com/gauthierbraillon/tweetmix/internal/timeline"
	"github.com/gauthierbraillon/tweetmix/internal/twitter"
	"github.com/gauthierbraillon/tweetmix/pkg/browser"
	"github.com/gauthierbraillon/tweetmix/pkg/oauth"
)

// version is injected at build time:
//
//	go build -ldflags="-X main.version=$(git describe --tags --always --dirty)" ./cmd/tweetmix
var version = "dev"

// tokenAccount names the credentials file in the config dir.
const tokenAccount = "twitter"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveVersion prefers the ldflags version and falls back to the module
// version recorded by go install.
func resolveVersion(ldflagsVersion string, info *debug.BuildInfo) string {
	if ldflagsVersion != "dev" {
		return ldflagsVersion
	}
	if info == nil || info.Main.Version == "" || info.Main.Version == "(devel)" {
		return "dev"
	}
	return info.Main.Version
}

// app carries state shared by every subcommand.
type app struct {
	verbose bool
	cfg     *config.Config
}

// newRootCmd creates the root command for tweetmix CLI.
func newRootCmd() *cobra.Command {
	a := &app{}
	info, _ := debug.ReadBuildInfo()

	rootCmd := &cobra.Command{
		Use:          "tweetmix",
		Short:        "Read and manage your Twitter timelines from the terminal",
		Long:         "Tweetmix merges your home, mentions, direct message and favorites timelines into one unified view.",
		Version:      resolveVersion(version, info),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.Dir())
			if err != nil {
				return err
			}
			a.cfg = cfg
			return logging.Init(logging.Options{Verbose: a.verbose, File: cfg.LogFile})
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logging.Close()
		},
	}

	rootCmd.SetVersionTemplate("tweetmix version {{.Version}}\n")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newAuthCmd(a))
	rootCmd.AddCommand(newTimelineCmd(a))
	rootCmd.AddCommand(newSearchCmd(a))
	rootCmd.AddCommand(newWatchCmd(a))
	rootCmd.AddCommand(newPostCmd(a))
	rootCmd.AddCommand(newDMCmd(a))
	rootCmd.AddCommand(newItemCmd(a, "favorite", "Favorite a status", (*timeline.Set).AddFavorite, "Favorited"))
	rootCmd.AddCommand(newItemCmd(a, "unfavorite", "Remove a status from your favorites", (*timeline.Set).RemoveFavorite, "Unfavorited"))
	rootCmd.AddCommand(newItemCmd(a, "retweet", "Retweet a status, or undo your retweet", (*timeline.Set).Retweet, "Toggled retweet of"))
	rootCmd.AddCommand(newItemCmd(a, "delete", "Delete one of your statuses", (*timeline.Set).DeleteTweet, "Deleted"))
	rootCmd.AddCommand(newOpenCmd(a))
	rootCmd.AddCommand(newConfigCmd(a))

	return rootCmd
}

// credentials resolves the access token pair: environment first, then the
// token saved by 'tweetmix auth'.
func (a *app) credentials() (oauth.Credentials, error) {
	creds := oauth.Credentials{
		AccessToken:       a.cfg.AccessToken,
		AccessTokenSecret: a.cfg.AccessTokenSecret,
		ScreenName:        a.cfg.ScreenName,
	}
	if creds.Validate() == nil {
		return creds, nil
	}

	stored, err := oauth.NewTokenStorage(a.cfg.Dir).Load(tokenAccount)
	if errors.Is(err, oauth.ErrTokenNotFound) {
		return oauth.Credentials{}, fmt.Errorf("not authenticated (run 'tweetmix auth' or set %sACCESS_TOKEN and %sACCESS_TOKEN_SECRET)", config.EnvPrefix, config.EnvPrefix)
	}
	if err != nil {
		return oauth.Credentials{}, err
	}
	if stored.ScreenName == "" {
		stored.ScreenName = a.cfg.ScreenName
	}
	return *stored, stored.Validate()
}

// newSet wires the API client into a fresh timeline set.
func (a *app) newSet(opts ...timeline.Option) (*timeline.Set, error) {
	if a.cfg.ConsumerKey == "" || a.cfg.ConsumerSecret == "" {
		return nil, fmt.Errorf("missing consumer credentials: set %sCONSUMER_KEY and %sCONSUMER_SECRET or add them to %s", config.EnvPrefix, config.EnvPrefix, config.ConfigFileName)
	}
	creds, err := a.credentials()
	if err != nil {
		return nil, err
	}

	signer := oauth.NewSigner(a.cfg.ConsumerKey, a.cfg.ConsumerSecret)
	client := twitter.NewClient(signer, creds,
		twitter.WithBaseURL(a.cfg.APIURL),
		twitter.WithRateLimit(a.cfg.RequestsPerSecond, a.cfg.Burst),
	)
	return timeline.New(client, creds.ScreenName, opts...), nil
}

func (a *app) formatter() *display.TerminalFormatter {
	return &display.TerminalFormatter{MaxTextLen: a.cfg.MaxTextLen}
}

func printItems(w io.Writer, f *display.TerminalFormatter, name timeline.Name, items []timeline.Item, limit int) {
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	fmt.Fprint(w, f.FormatView(name, items))
}

// newAuthCmd creates the auth subcommand.
func newAuthCmd(a *app) *cobra.Command {
	var token, secret, screenName string

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Store your access token",
		Long: "Store the access token pair issued for your account so later commands can sign requests.\n" +
			"Values default to " + config.EnvPrefix + "ACCESS_TOKEN, " + config.EnvPrefix + "ACCESS_TOKEN_SECRET and " + config.EnvPrefix + "SCREEN_NAME.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			creds := &oauth.Credentials{
				AccessToken:       firstNonEmpty(token, a.cfg.AccessToken),
				AccessTokenSecret: firstNonEmpty(secret, a.cfg.AccessTokenSecret),
				ScreenName:        firstNonEmpty(screenName, a.cfg.ScreenName),
			}
			if err := creds.Validate(); err != nil {
				return fmt.Errorf("%w: pass --token and --token-secret", err)
			}
			if creds.ScreenName == "" {
				return fmt.Errorf("missing screen name: pass --screen-name")
			}

			storage := oauth.NewTokenStorage(a.cfg.Dir)
			if err := storage.Save(tokenAccount, creds); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Successfully authenticated as @%s!\n", creds.ScreenName)
			fmt.Fprintf(cmd.OutOrStdout(), "Token saved to: %s\n", a.cfg.Dir)
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Access token")
	cmd.Flags().StringVar(&secret, "token-secret", "", "Access token secret")
	cmd.Flags().StringVar(&screenName, "screen-name", "", "Your screen name")

	return cmd
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// fetchers maps each fetchable view to the feeds that fill it.
func fetchers(set *timeline.Set, name timeline.Name) []func(context.Context) error {
	switch name {
	case timeline.Home:
		return []func(context.Context) error{set.FetchHome}
	case timeline.Mentions:
		return []func(context.Context) error{set.FetchMentions}
	case timeline.Messages:
		return []func(context.Context) error{set.FetchDirectMessages}
	case timeline.Favorites:
		return []func(context.Context) error{set.FetchFavorites}
	case timeline.Unified:
		return []func(context.Context) error{set.FetchHome, set.FetchMentions, set.FetchDirectMessages}
	}
	return nil
}

// newTimelineCmd creates the timeline subcommand.
func newTimelineCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "timeline [unified|home|mentions|messages|favorites]",
		Short: "Display a timeline",
		Long:  "Fetch and display one of your timelines. Defaults to the unified view.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := timeline.Unified
			if len(args) == 1 {
				parsed, ok := timeline.ParseName(args[0])
				if !ok || parsed == timeline.Search {
					return fmt.Errorf("invalid timeline %q: must be one of unified, home, mentions, messages, favorites", args[0])
				}
				name = parsed
			}

			set, err := a.newSet()
			if err != nil {
				return err
			}
			defer set.Close()

			g, ctx := errgroup.WithContext(cmd.Context())
			for _, fetch := range fetchers(set, name) {
				g.Go(func() error { return fetch(ctx) })
			}
			if err := g.Wait(); err != nil {
				return err
			}

			printItems(cmd.OutOrStdout(), a.formatter(), name, set.View(name), limit)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum number of items to display")

	return cmd
}

// newSearchCmd creates the search subcommand.
func newSearchCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search recent statuses",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := a.newSet()
			if err != nil {
				return err
			}
			defer set.Close()

			if err := <-set.Search(cmd.Context(), strings.Join(args, " ")); err != nil {
				return err
			}

			printItems(cmd.OutOrStdout(), a.formatter(), timeline.Search, set.View(timeline.Search), limit)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum number of items to display")

	return cmd
}

// newWatchCmd creates the watch subcommand.
func newWatchCmd(a *app) *cobra.Command {
	var bell bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll your timelines and print new statuses as they arrive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			// no bell when stderr is redirected
			ring := bell && term.IsTerminal(int(os.Stderr.Fd()))
			set, err := a.newSet(timeline.WithNotifier(func(name timeline.Name) {
				logging.Info("New content", "view", name)
				if ring {
					fmt.Fprint(cmd.ErrOrStderr(), "\a")
				}
			}))
			if err != nil {
				return err
			}
			defer set.Close()

			events := set.Subscribe()
			done := make(chan struct{})
			go func() {
				defer close(done)
				printNew(out, a.formatter(), set, events)
			}()

			poller := timeline.NewPoller(set, timeline.Intervals{
				Home:      a.cfg.Poll.Home,
				Mentions:  a.cfg.Poll.Mentions,
				Messages:  a.cfg.Poll.Messages,
				Favorites: a.cfg.Poll.Favorites,
				TimeAgo:   a.cfg.Poll.TimeAgo,
			})
			err = poller.Run(ctx)
			set.Unsubscribe(events)
			<-done

			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&bell, "bell", true, "Ring the terminal bell when new home or direct message items arrive")

	return cmd
}

// printNew prints unified items the first time they appear.
func printNew(w io.Writer, f *display.TerminalFormatter, set *timeline.Set, events <-chan timeline.Event) {
	seen := make(map[string]bool)
	for ev := range events {
		if ev.Kind != timeline.ViewChanged || ev.View != timeline.Unified {
			continue
		}
		items := set.View(timeline.Unified)
		// oldest first so the newest ends up at the bottom of the terminal
		for i := len(items) - 1; i >= 0; i-- {
			if seen[items[i].ID] {
				continue
			}
			seen[items[i].ID] = true
			fmt.Fprint(w, f.FormatItem(items[i])+"\n")
		}
	}
}

// newPostCmd creates the post subcommand.
func newPostCmd(a *app) *cobra.Command {
	var replyTo, media string

	cmd := &cobra.Command{
		Use:   "post <text>",
		Short: "Post a status",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if replyTo != "" && media != "" {
				return fmt.Errorf("--reply-to and --media cannot be combined")
			}
			set, err := a.newSet()
			if err != nil {
				return err
			}
			defer set.Close()

			text := strings.Join(args, " ")
			var item timeline.Item
			if media != "" {
				item, err = set.PostStatusWithMedia(cmd.Context(), text, media)
			} else {
				item, err = set.PostStatus(cmd.Context(), text, replyTo)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Posted %s\n", display.Permalink(item.ScreenName, item.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&replyTo, "reply-to", "", "Id of the status to reply to")
	cmd.Flags().StringVar(&media, "media", "", "Path of an image to attach")

	return cmd
}

// newDMCmd creates the dm subcommand.
func newDMCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dm <screen_name> <text>",
		Short: "Send a direct message",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := a.newSet()
			if err != nil {
				return err
			}
			defer set.Close()

			to := strings.TrimPrefix(args[0], "@")
			if _, err := set.PostDirectMessage(cmd.Context(), strings.Join(args[1:], " "), to); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Message sent to @%s\n", to)
			return nil
		},
	}
}

// newItemCmd creates a subcommand acting on one status id.
func newItemCmd(a *app, use, short string, action func(*timeline.Set, context.Context, string) error, done string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := a.newSet()
			if err != nil {
				return err
			}
			defer set.Close()

			id := args[0]
			if _, err := set.Lookup(cmd.Context(), id); err != nil {
				return err
			}
			if err := action(set, cmd.Context(), id); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", done, id)
			return nil
		},
	}
}

// newOpenCmd creates the open subcommand.
func newOpenCmd(a *app) *cobra.Command {
	var printOnly bool

	cmd := &cobra.Command{
		Use:   "open <id>",
		Short: "Open a status in your browser",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := a.newSet()
			if err != nil {
				return err
			}
			defer set.Close()

			item, err := set.Lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			link := display.Permalink(item.ScreenName, item.ID)
			if printOnly {
				fmt.Fprintln(cmd.OutOrStdout(), link)
				return nil
			}
			if err := browser.Open(link); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Could not open browser. Please visit:\n%s\n", link)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&printOnly, "print", false, "Print the link instead of opening it")

	return cmd
}

// newConfigCmd creates the config subcommand.
func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  "View or initialize tweetmix configuration settings.",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "Config directory: %s\n", a.cfg.Dir)
			fmt.Fprint(cmd.OutOrStdout(), a.cfg.String())
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the current settings to " + config.ConfigFileName,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Write(a.cfg.Dir); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s to %s\n", config.ConfigFileName, a.cfg.Dir)
			return nil
		},
	})

	return cmd
}
