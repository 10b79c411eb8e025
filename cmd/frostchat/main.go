package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/frostneek/FrostChat/pkg/audit"
	"github.com/frostneek/FrostChat/pkg/authentication"
	"github.com/frostneek/FrostChat/pkg/chat"
	"github.com/frostneek/FrostChat/pkg/commands"
	"github.com/frostneek/FrostChat/pkg/filter"
	"github.com/frostneek/FrostChat/pkg/logging"
	"github.com/frostneek/FrostChat/pkg/moderation"
	"github.com/frostneek/FrostChat/pkg/session"
	"github.com/frostneek/FrostChat/pkg/terminal"
	"github.com/frostneek/FrostChat/pkg/transport"
	"github.com/frostneek/FrostChat/pkg/users"
)

var (
	version     = "dev" // Will be set during build
	cfgFile     string
	serverURL   string
	ephemeral   bool
	showVersion bool
)

func main() {
	cobra.CheckErr(rootCmd.Execute())
}

var rootCmd = &cobra.Command{
	Use:           "frostchat",
	Short:         "FrostChat terminal chat client",
	SilenceUsage:  true,
	SilenceErrors: false,
	Long: `FrostChat - terminal chat client with roles and moderation

Connects to a FrostChat relay server, asks you to sign up or log in, then
runs an interactive chat. Type /help once logged in for the command list.

The optional configuration file is JSON:
{
    "server_url": "wss://chat.example.org/ws",
    "user_data_path": "jsons/users.json",
    "profanity_log_path": "logs/profanity-reports.txt",
    "promotions_log_path": "logs/promotions-demotions.txt",
    "audit_policy": "legacy",
    "watch_user_data": true,
    "allow_legacy_passwords": true,
    "chat_rate_per_second": 2,
    "chat_burst": 5,
    "extra_filter_words": ["frick"],
    "history_file": ".frostchat_history",
    "handshake_timeout": 10,
    "app_log_path": "logs/frostchat.log",
    "access_log_path": "logs/frostchat-access.log",
    "log_level": "info",
    "log_max_size": 10485760
}`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Printf("FrostChat %s\n", version)
			return nil
		}

		config := DefaultConfig()
		if cfgFile != "" {
			// Convert to absolute path if needed
			if !filepath.IsAbs(cfgFile) {
				abs, err := filepath.Abs(cfgFile)
				if err != nil {
					return fmt.Errorf("failed to get absolute path: %v", err)
				}
				cfgFile = abs
			}
			if err := LoadConfig(cfgFile, &config); err != nil {
				return fmt.Errorf("failed to load config: %v", err)
			}
		}
		if serverURL != "" {
			config.ServerURL = serverURL
			if err := config.Validate(); err != nil {
				return err
			}
		}

		level, _ := logging.ParseLevel(config.LogLevel)
		logConfig := logging.Config{
			AppLogPath:    config.AppLogPath,
			AccessLogPath: config.AccessLogPath,
			Level:         level,
			MaxSize:       config.LogMaxSize,
		}
		if err := logging.Initialize(&logConfig); err != nil {
			return fmt.Errorf("failed to initialize logging: %v", err)
		}
		defer logging.Shutdown()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return run(ctx, config)
	},
}

func run(ctx context.Context, config Config) error {
	logging.App.Info("Starting FrostChat", "version", version, "server", config.ServerURL)

	// Account storage
	var source users.Source
	if ephemeral {
		source = users.NewMemorySource()
	} else {
		source = users.NewFileSource(afero.NewOsFs(), config.UserDataPath)
	}
	store := users.NewStore(source, nil)
	if err := loadUserData(store); err != nil {
		return err
	}

	verifier := authentication.NewMultiHashVerifier(nil, *config.AllowLegacyPasswords)
	authenticator, err := authentication.NewAuthenticator(store, verifier, nil)
	if err != nil {
		return fmt.Errorf("failed to create authenticator: %v", err)
	}

	policy, _ := audit.ParsePolicy(config.AuditPolicy)
	auditLog := audit.New(afero.NewOsFs(), audit.Config{
		ProfanityPath:  config.ProfanityLogPath,
		PromotionsPath: config.PromotionsLogPath,
		Policy:         policy,
	}, nil)

	console := terminal.New(terminal.Options{HistoryFile: config.HistoryFile})
	defer console.Close()
	if store.ReadOnly() {
		console.Warn(fmt.Sprintf("User data at %s could not be read; starting with no accounts. Changes will not be saved until the file is readable again.", config.UserDataPath))
	}

	channel := transport.NewWebSocketChannel(config.ServerURL, transport.WebSocketOptions{
		HandshakeTimeout: time.Duration(config.HandshakeTimeout) * time.Second,
	}, nil)

	timers := chat.NewTimerQueue()
	engine := moderation.NewEngine(moderation.Options{
		Store:     store,
		Channel:   channel,
		Audit:     auditLog,
		Hasher:    verifier,
		Filter:    filter.NewProfanityFilter(config.ExtraFilterWords...),
		Scheduler: timers,
		OnAuditError: func(err error) {
			console.Warn("The action succeeded but could not be written to the audit log.")
		},
	})
	sess := session.New(store, authenticator, channel, nil)
	router := commands.NewRouter(engine, sess, console)

	var changes <-chan struct{}
	if *config.WatchUserData && !ephemeral {
		watcher, err := users.NewWatcher(config.UserDataPath, 200*time.Millisecond, nil)
		if err != nil {
			logging.App.Warn("User data file will not be watched", "error", err)
		} else {
			watcher.Start(ctx)
			defer watcher.Close()
			changes = watcher.Changes()
		}
	}

	var limiter *rate.Limiter
	if config.ChatRatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.ChatRatePerSecond), config.ChatBurst)
	}

	client := chat.New(chat.Options{
		Session:  sess,
		Router:   router,
		Engine:   engine,
		Store:    store,
		Events:   channel.Events(),
		Timers:   timers,
		Changes:  changes,
		Prompter: console,
		Display:  console,
		Limiter:  limiter,
		OnDisconnect: func(err error) bool {
			logging.App.Error("Connection lost", "error", err)
			return true
		},
	})

	ctx, cancel := context.WithCancel(ctx)
	connected := make(chan struct{})
	go func() {
		defer close(connected)
		// failures arrive on Events as connect_error
		_ = channel.Connect(ctx)
	}()

	err = client.Run(ctx)

	if sess.LoggedIn() {
		_ = sess.Logout()
	}
	cancel()
	<-connected
	if cerr := channel.Close(); cerr != nil {
		logging.App.Warn("Closing the connection failed", "error", cerr)
	}

	switch {
	case errors.Is(err, chat.ErrDisconnected):
		return err
	case errors.Is(err, context.Canceled):
		logging.App.Info("Interrupted")
		return nil
	case err != nil:
		return fmt.Errorf("chat client stopped: %v", err)
	}
	logging.App.Info("Goodbye")
	return nil
}

// loadUserData reads the account set. A missing, corrupt or unreadable
// file leaves the store empty and is not fatal.
func loadUserData(store *users.Store) error {
	err := store.Load()
	switch {
	case err == nil, errors.Is(err, users.ErrNoPriorData), errors.Is(err, users.ErrStorageRead):
		return nil
	default:
		return fmt.Errorf("failed to load user data: %v", err)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&cfgFile, "config", "c", "", "path to config file (optional)")
	rootCmd.Flags().StringVar(&serverURL, "server", "", "relay server websocket URL (overrides server_url)")
	rootCmd.Flags().BoolVar(&ephemeral, "ephemeral", false, "keep accounts in memory only")
	rootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "show version information")
}
