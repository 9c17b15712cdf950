// Package config manages the configuration of the Scribe server. Configs
// may be provided through a yaml file, environment variables or command-line
// flags, in increasing order of precedence.
package config

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	envPrefix = "SCRIBE"
)

// MysqlConfig defines configs related to MySQL
type MysqlConfig struct {
	Protocol        string
	Address         string
	Username        string
	Password        string
	PasswordPath    string `yaml:"password_path"`
	Database        string
	TLSCert         string `yaml:"tls_cert"`
	TLSKey          string `yaml:"tls_key"`
	TLSCA           string `yaml:"tls_ca"`
	TLSServerName   string `yaml:"tls_server_name"`
	TLSConfig       string `yaml:"tls_config"` // tls=customValue in DSN
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime"`
}

// RedisConfig defines configs related to Redis
type RedisConfig struct {
	Address              string
	Password             string
	Database             int
	UseTLS               bool          `yaml:"use_tls"`
	ConnectTimeout       time.Duration `yaml:"connect_timeout"`
	KeepAlive            time.Duration `yaml:"keep_alive"`
	ConnectRetryAttempts int           `yaml:"connect_retry_attempts"`
	MaxIdleConns         int           `yaml:"max_idle_conns"`
	MaxOpenConns         int           `yaml:"max_open_conns"`
	ConnMaxLifetime      time.Duration `yaml:"conn_max_lifetime"`
	IdleTimeout          time.Duration `yaml:"idle_timeout"`
	JoinQueueKey         string        `yaml:"join_queue_key"`
}

// ServerConfig defines configs related to the Scribe server
type ServerConfig struct {
	Address   string
	Cert      string
	Key       string
	TLS       bool
	URLPrefix string `yaml:"url_prefix"`
	Keepalive bool   `yaml:"keepalive"`
}

// DefaultHTTPServer returns a dependency-free HTTP server with sane timeout
// defaults, bound to the configured address.
func (s *ServerConfig) DefaultHTTPServer(ctx context.Context, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              s.Address,
		Handler:           handler,
		ReadTimeout:       25 * time.Second,
		WriteTimeout:      40 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       5 * time.Minute,
		MaxHeaderBytes:    1 << 18,
		BaseContext: func(l net.Listener) context.Context {
			return ctx
		},
	}
}

// SessionConfig defines configs related to user sessions
type SessionConfig struct {
	KeySize  int `yaml:"key_size"`
	Duration time.Duration
}

// IdentityConfig defines configs related to the OAuth identity provider used
// for signing users in.
type IdentityConfig struct {
	URL            string
	APIKey         string        `yaml:"api_key"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	SuccessURL     string        `yaml:"success_url"`
	FailureURL     string        `yaml:"failure_url"`
}

// SchedulerConfig defines configs related to the external calendar scheduler
// service that performs provider synchronization.
type SchedulerConfig struct {
	URL            string
	AuthToken      string        `yaml:"auth_token"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// WorkerConfig defines configs related to the async job worker and the
// scheduled meeting dispatcher.
type WorkerConfig struct {
	ProcessInterval  time.Duration `yaml:"process_interval"`
	DispatchInterval time.Duration `yaml:"dispatch_interval"`
	DispatchWindow   time.Duration `yaml:"dispatch_window"`
}

// LoggingConfig defines configs related to logging
type LoggingConfig struct {
	Debug         bool
	JSON          bool
	DisableBanner bool `yaml:"disable_banner"`
}

// ScribeConfig stores the application configuration. Each subcategory is
// broken up into it's own struct, defined above. When editing any of these
// structs, Manager.addConfigs and Manager.LoadConfig should be
// updated to set and retrieve the configurations as appropriate.
type ScribeConfig struct {
	Mysql     MysqlConfig
	Redis     RedisConfig
	Server    ServerConfig
	Session   SessionConfig
	Identity  IdentityConfig
	Scheduler SchedulerConfig
	Worker    WorkerConfig
	Logging   LoggingConfig
}

type TLS struct {
	TLSCert       string
	TLSKey        string
	TLSCA         string
	TLSServerName string
}

func (t *TLS) ToTLSConfig() (*tls.Config, error) {
	var rootCertPool *x509.CertPool
	if t.TLSCA != "" {
		rootCertPool = x509.NewCertPool()
		pem, err := os.ReadFile(t.TLSCA)
		if err != nil {
			return nil, fmt.Errorf("read server-ca pem: %w", err)
		}
		if ok := rootCertPool.AppendCertsFromPEM(pem); !ok {
			return nil, errors.New("failed to append PEM.")
		}
	}

	cfg := &tls.Config{
		RootCAs: rootCertPool,
	}
	if t.TLSCert != "" {
		clientCert := make([]tls.Certificate, 0, 1)
		certs, err := tls.LoadX509KeyPair(t.TLSCert, t.TLSKey)
		if err != nil {
			return nil, fmt.Errorf("load client cert and key: %w", err)
		}
		clientCert = append(clientCert, certs)
		cfg.Certificates = clientCert
	}

	if t.TLSServerName != "" {
		cfg.ServerName = t.TLSServerName
	}
	return cfg, nil
}

// addConfigs adds the configuration keys and default values that will be
// filled into the ScribeConfig struct
func (man Manager) addConfigs() {
	// MySQL
	man.addConfigString("mysql.protocol", "tcp",
		"MySQL server communication protocol (tcp,unix,...)")
	man.addConfigString("mysql.address", "localhost:3306",
		"MySQL server address (host:port)")
	man.addConfigString("mysql.username", "scribe",
		"MySQL server username")
	man.addConfigString("mysql.password", "",
		"MySQL server password (prefer env variable for security)")
	man.addConfigString("mysql.password_path", "",
		"Path to file containg MySQL server password")
	man.addConfigString("mysql.database", "scribe",
		"MySQL database name")
	man.addConfigString("mysql.tls_cert", "",
		"MySQL TLS client certificate path")
	man.addConfigString("mysql.tls_key", "",
		"MySQL TLS client key path")
	man.addConfigString("mysql.tls_ca", "",
		"MySQL TLS server CA")
	man.addConfigString("mysql.tls_server_name", "",
		"MySQL TLS server name")
	man.addConfigString("mysql.tls_config", "",
		"MySQL TLS config value. Use skip-verify, true, false or custom key.")
	man.addConfigInt("mysql.max_open_conns", 50, "MySQL maximum open connection handles")
	man.addConfigInt("mysql.max_idle_conns", 50, "MySQL maximum idle connection handles")
	man.addConfigInt("mysql.conn_max_lifetime", 0, "MySQL maximum amount of time a connection may be reused")

	// Redis
	man.addConfigString("redis.address", "localhost:6379",
		"Redis server address (host:port)")
	man.addConfigString("redis.password", "",
		"Redis server password (prefer env variable for security)")
	man.addConfigInt("redis.database", 0,
		"Redis server database number")
	man.addConfigBool("redis.use_tls", false, "Redis server enable TLS")
	man.addConfigDuration("redis.connect_timeout", 5*time.Second, "Timeout at connection time")
	man.addConfigDuration("redis.keep_alive", 10*time.Second, "Interval between keep alive probes")
	man.addConfigInt("redis.connect_retry_attempts", 0, "Number of attempts to retry a failed connection")
	man.addConfigInt("redis.max_idle_conns", 3, "Redis maximum idle connections")
	man.addConfigInt("redis.max_open_conns", 0, "Redis maximum open connections, 0 means no limit")
	man.addConfigDuration("redis.conn_max_lifetime", 0, "Redis maximum amount of time a connection may be reused, 0 means no limit")
	man.addConfigDuration("redis.idle_timeout", 240*time.Second, "Redis maximum amount of time a connection may stay idle, 0 means no limit")
	man.addConfigString("redis.join_queue_key", "queue:join_meeting",
		"Redis list key the recording bot consumes join requests from")

	// Server
	man.addConfigString("server.address", "0.0.0.0:8080",
		"Scribe server address (host:port)")
	man.addConfigString("server.cert", "./tools/tls/scribe.crt",
		"Scribe TLS certificate path")
	man.addConfigString("server.key", "./tools/tls/scribe.key",
		"Scribe TLS key path")
	man.addConfigBool("server.tls", false,
		"Enable TLS (required for production usage)")
	man.addConfigString("server.url_prefix", "",
		"URL prefix used on server and frontend endpoints")
	man.addConfigBool("server.keepalive", true,
		"Controls whether HTTP keep-alives are enabled.")

	// Session
	man.addConfigInt("session.key_size", 64,
		"Size of generated session keys")
	man.addConfigDuration("session.duration", 24*90*time.Hour,
		"Duration session keys remain valid (i.e. 24h)")

	// Identity provider
	man.addConfigString("identity.url", "",
		"Base URL of the OAuth identity provider")
	man.addConfigString("identity.api_key", "",
		"API key used to authenticate with the identity provider (prefer env variable for security)")
	man.addConfigDuration("identity.request_timeout", 10*time.Second,
		"Timeout for requests to the identity provider")
	man.addConfigString("identity.success_url", "/dashboard",
		"URL the browser is redirected to after a successful sign-in")
	man.addConfigString("identity.failure_url", "/auth/error",
		"URL the browser is redirected to after a failed sign-in")

	// Calendar scheduler
	man.addConfigString("scheduler.url", "",
		"Base URL of the calendar scheduler service")
	man.addConfigString("scheduler.auth_token", "",
		"Bearer token used to authenticate with the scheduler service (prefer env variable for security)")
	man.addConfigDuration("scheduler.request_timeout", 30*time.Second,
		"Timeout for requests to the scheduler service")

	// Worker
	man.addConfigDuration("worker.process_interval", 30*time.Second,
		"Interval at which queued jobs are processed")
	man.addConfigDuration("worker.dispatch_interval", time.Minute,
		"Interval at which scheduled meetings are checked for dispatch")
	man.addConfigDuration("worker.dispatch_window", time.Minute,
		"How far ahead of start time a scheduled meeting is dispatched")

	// Logging
	man.addConfigBool("logging.debug", false,
		"Enable debug logging")
	man.addConfigBool("logging.json", false,
		"Log in JSON format")
	man.addConfigBool("logging.disable_banner", false,
		"Disable startup banner")
}

// LoadConfig will load the config variables into a fully initialized
// ScribeConfig struct
func (man Manager) LoadConfig() ScribeConfig {
	man.loadConfigFile()

	return ScribeConfig{
		Mysql: MysqlConfig{
			Protocol:        man.getConfigString("mysql.protocol"),
			Address:         man.getConfigString("mysql.address"),
			Username:        man.getConfigString("mysql.username"),
			Password:        man.getConfigString("mysql.password"),
			PasswordPath:    man.getConfigString("mysql.password_path"),
			Database:        man.getConfigString("mysql.database"),
			TLSCert:         man.getConfigString("mysql.tls_cert"),
			TLSKey:          man.getConfigString("mysql.tls_key"),
			TLSCA:           man.getConfigString("mysql.tls_ca"),
			TLSServerName:   man.getConfigString("mysql.tls_server_name"),
			TLSConfig:       man.getConfigString("mysql.tls_config"),
			MaxOpenConns:    man.getConfigInt("mysql.max_open_conns"),
			MaxIdleConns:    man.getConfigInt("mysql.max_idle_conns"),
			ConnMaxLifetime: man.getConfigInt("mysql.conn_max_lifetime"),
		},
		Redis: RedisConfig{
			Address:              man.getConfigString("redis.address"),
			Password:             man.getConfigString("redis.password"),
			Database:             man.getConfigInt("redis.database"),
			UseTLS:               man.getConfigBool("redis.use_tls"),
			ConnectTimeout:       man.getConfigDuration("redis.connect_timeout"),
			KeepAlive:            man.getConfigDuration("redis.keep_alive"),
			ConnectRetryAttempts: man.getConfigInt("redis.connect_retry_attempts"),
			MaxIdleConns:         man.getConfigInt("redis.max_idle_conns"),
			MaxOpenConns:         man.getConfigInt("redis.max_open_conns"),
			ConnMaxLifetime:      man.getConfigDuration("redis.conn_max_lifetime"),
			IdleTimeout:          man.getConfigDuration("redis.idle_timeout"),
			JoinQueueKey:         man.getConfigString("redis.join_queue_key"),
		},
		Server: ServerConfig{
			Address:   man.getConfigString("server.address"),
			Cert:      man.getConfigString("server.cert"),
			Key:       man.getConfigString("server.key"),
			TLS:       man.getConfigBool("server.tls"),
			URLPrefix: man.getConfigString("server.url_prefix"),
			Keepalive: man.getConfigBool("server.keepalive"),
		},
		Session: SessionConfig{
			KeySize:  man.getConfigInt("session.key_size"),
			Duration: man.getConfigDuration("session.duration"),
		},
		Identity: IdentityConfig{
			URL:            man.getConfigString("identity.url"),
			APIKey:         man.getConfigString("identity.api_key"),
			RequestTimeout: man.getConfigDuration("identity.request_timeout"),
			SuccessURL:     man.getConfigString("identity.success_url"),
			FailureURL:     man.getConfigString("identity.failure_url"),
		},
		Scheduler: SchedulerConfig{
			URL:            man.getConfigString("scheduler.url"),
			AuthToken:      man.getConfigString("scheduler.auth_token"),
			RequestTimeout: man.getConfigDuration("scheduler.request_timeout"),
		},
		Worker: WorkerConfig{
			ProcessInterval:  man.getConfigDuration("worker.process_interval"),
			DispatchInterval: man.getConfigDuration("worker.dispatch_interval"),
			DispatchWindow:   man.getConfigDuration("worker.dispatch_window"),
		},
		Logging: LoggingConfig{
			Debug:         man.getConfigBool("logging.debug"),
			JSON:          man.getConfigBool("logging.json"),
			DisableBanner: man.getConfigBool("logging.disable_banner"),
		},
	}
}

// IsSet determines whether a given config key has been explicitly set by any
// of the configuration sources. If false, the default value is being used.
func (man Manager) IsSet(key string) bool {
	return man.viper.IsSet(key)
}

// envNameFromConfigKey converts a config key into the corresponding
// environment variable name
func envNameFromConfigKey(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.Replace(key, ".", "_", -1))
}

// flagNameFromConfigKey converts a config key into the corresponding flag name
func flagNameFromConfigKey(key string) string {
	return strings.Replace(key, ".", "_", -1)
}

// Manager manages the addition and retrieval of config values for Scribe
// configs. It's only public API method is LoadConfig, which will return the
// populated ScribeConfig struct.
type Manager struct {
	viper    *viper.Viper
	command  *cobra.Command
	defaults map[string]interface{}
}

// NewManager initializes a Manager wrapping the provided cobra
// command. All config flags will be attached to that command (and inherited by
// the subcommands). Typically this should be called just once, with the root
// command.
func NewManager(command *cobra.Command) Manager {
	man := Manager{
		viper:    viper.New(),
		command:  command,
		defaults: map[string]interface{}{},
	}
	man.addConfigs()
	return man
}

// addDefault will check for duplication, then add a default value to the
// defaults map
func (man Manager) addDefault(key string, defVal interface{}) {
	if _, exists := man.defaults[key]; exists {
		panic("Trying to add duplicate config for key " + key)
	}

	man.defaults[key] = defVal
}

func getFlagUsage(key string, usage string) string {
	return fmt.Sprintf("Env: %s\n\t\t%s", envNameFromConfigKey(key), usage)
}

// getInterfaceVal is a helper function used by the getConfig* functions to
// retrieve the config value as interface{}, which will then be cast to the
// appropriate type by the getConfig* function.
func (man Manager) getInterfaceVal(key string) interface{} {
	interfaceVal := man.viper.Get(key)
	if interfaceVal == nil {
		var ok bool
		interfaceVal, ok = man.defaults[key]
		if !ok {
			panic("Tried to look up default value for nonexistent config option: " + key)
		}
	}
	return interfaceVal
}

// addConfigString adds a string config to the config options
func (man Manager) addConfigString(key, defVal, usage string) {
	man.command.PersistentFlags().String(flagNameFromConfigKey(key), defVal, getFlagUsage(key, usage))
	man.viper.BindPFlag(key, man.command.PersistentFlags().Lookup(flagNameFromConfigKey(key)))
	man.viper.BindEnv(key, envNameFromConfigKey(key))

	// Add default
	man.addDefault(key, defVal)
}

// getConfigString retrieves a string from the loaded config
func (man Manager) getConfigString(key string) string {
	interfaceVal := man.getInterfaceVal(key)
	stringVal, err := cast.ToStringE(interfaceVal)
	if err != nil {
		panic("Unable to cast to string for key " + key + ": " + err.Error())
	}

	return stringVal
}

// addConfigInt adds a int config to the config options
func (man Manager) addConfigInt(key string, defVal int, usage string) {
	man.command.PersistentFlags().Int(flagNameFromConfigKey(key), defVal, getFlagUsage(key, usage))
	man.viper.BindPFlag(key, man.command.PersistentFlags().Lookup(flagNameFromConfigKey(key)))
	man.viper.BindEnv(key, envNameFromConfigKey(key))

	// Add default
	man.addDefault(key, defVal)
}

// getConfigInt retrieves a int from the loaded config
func (man Manager) getConfigInt(key string) int {
	interfaceVal := man.getInterfaceVal(key)
	intVal, err := cast.ToIntE(interfaceVal)
	if err != nil {
		panic("Unable to cast to int for key " + key + ": " + err.Error())
	}

	return intVal
}

// addConfigBool adds a bool config to the config options
func (man Manager) addConfigBool(key string, defVal bool, usage string) {
	man.command.PersistentFlags().Bool(flagNameFromConfigKey(key), defVal, getFlagUsage(key, usage))
	man.viper.BindPFlag(key, man.command.PersistentFlags().Lookup(flagNameFromConfigKey(key)))
	man.viper.BindEnv(key, envNameFromConfigKey(key))

	// Add default
	man.addDefault(key, defVal)
}

// getConfigBool retrieves a bool from the loaded config
func (man Manager) getConfigBool(key string) bool {
	interfaceVal := man.getInterfaceVal(key)
	boolVal, err := cast.ToBoolE(interfaceVal)
	if err != nil {
		panic("Unable to cast to bool for key " + key + ": " + err.Error())
	}

	return boolVal
}

// addConfigDuration adds a duration config to the config options
func (man Manager) addConfigDuration(key string, defVal time.Duration, usage string) {
	man.command.PersistentFlags().Duration(flagNameFromConfigKey(key), defVal, getFlagUsage(key, usage))
	man.viper.BindPFlag(key, man.command.PersistentFlags().Lookup(flagNameFromConfigKey(key)))
	man.viper.BindEnv(key, envNameFromConfigKey(key))

	// Add default
	man.addDefault(key, defVal)
}

// getConfigDuration retrieves a duration from the loaded config
func (man Manager) getConfigDuration(key string) time.Duration {
	interfaceVal := man.getInterfaceVal(key)
	durationVal, err := cast.ToDurationE(interfaceVal)
	if err != nil {
		panic("Unable to cast to duration for key " + key + ": " + err.Error())
	}

	return durationVal
}

// loadConfigFile handles the loading of the config file.
func (man Manager) loadConfigFile() {
	man.viper.SetConfigType("yaml")

	configFile := man.command.PersistentFlags().Lookup("config").Value.String()

	if configFile == "" {
		// No config file set, only use configs from env
		// vars/flags/defaults
		return
	}

	man.viper.SetConfigFile(configFile)
	err := man.viper.ReadInConfig()
	if err != nil {
		fmt.Println("Error loading config file:", err)
		os.Exit(1)
	}

	fmt.Println("Using config file: ", man.viper.ConfigFileUsed())
}

// TestConfig returns a barebones configuration suitable for use in tests.
// Individual tests may want to override some of the values provided.
func TestConfig() ScribeConfig {
	return ScribeConfig{
		Session: SessionConfig{
			KeySize:  64,
			Duration: 24 * 90 * time.Hour,
		},
		Redis: RedisConfig{
			JoinQueueKey: "queue:join_meeting",
		},
		Identity: IdentityConfig{
			URL:            "http://identity.test",
			RequestTimeout: time.Second,
			SuccessURL:     "/dashboard",
			FailureURL:     "/auth/error",
		},
		Scheduler: SchedulerConfig{
			URL:            "http://scheduler.test",
			RequestTimeout: time.Second,
		},
		Worker: WorkerConfig{
			ProcessInterval:  30 * time.Second,
			DispatchInterval: time.Minute,
			DispatchWindow:   time.Minute,
		},
		Logging: LoggingConfig{
			Debug:         true,
			DisableBanner: true,
		},
	}
}
