// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Printer  PrinterConfig  `mapstructure:"printer"`
	Input    InputConfig    `mapstructure:"input"`
	Serial   SerialConfig   `mapstructure:"serial"`
	Paper    PaperConfig    `mapstructure:"paper"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Server   ServerConfig   `mapstructure:"server"`
	Security SecurityConfig `mapstructure:"security"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Sender   SenderConfig   `mapstructure:"sender"`
}

// AppConfig represents application metadata
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// PrinterConfig selects the emulated printer
type PrinterConfig struct {
	Model string `mapstructure:"model"`
}

// InputConfig selects where printer bytes come from
type InputConfig struct {
	Source         string        `mapstructure:"source"`
	File           string        `mapstructure:"file"`
	Charset        string        `mapstructure:"charset"`
	TCPAddr        string        `mapstructure:"tcp_addr"`
	TCPIdleTimeout time.Duration `mapstructure:"tcp_idle_timeout"`
	PtyLink        string        `mapstructure:"pty_link"`
	SpoolDir       string        `mapstructure:"spool_dir"`
	SpoolSettle    time.Duration `mapstructure:"spool_settle"`
}

// SerialConfig represents serial port configuration
type SerialConfig struct {
	Port        string        `mapstructure:"port"`
	BaudRate    int           `mapstructure:"baud_rate"`
	DataBits    int           `mapstructure:"data_bits"`
	StopBits    int           `mapstructure:"stop_bits"`
	Parity      string        `mapstructure:"parity"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
}

// PaperConfig controls where printed output goes
type PaperConfig struct {
	WriteFiles bool   `mapstructure:"write_files"`
	OutputDir  string `mapstructure:"output_dir"`
	TextFile   string `mapstructure:"text_file"`
	ImageFile  string `mapstructure:"image_file"`
	Scale      int    `mapstructure:"scale"`
	RollSize   int    `mapstructure:"roll_size"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
}

// SecurityConfig represents security configuration
type SecurityConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ArchiveConfig enables storing printed lines in PostgreSQL
type ArchiveConfig struct {
	Enabled         bool           `mapstructure:"enabled"`
	QueueSize       int            `mapstructure:"queue_size"`
	Retention       time.Duration  `mapstructure:"retention"`
	CleanupInterval time.Duration  `mapstructure:"cleanup_interval"`
	Database        DatabaseConfig `mapstructure:"database"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	User         string        `mapstructure:"user"`
	Password     string        `mapstructure:"password"`
	DBName       string        `mapstructure:"dbname"`
	SSLMode      string        `mapstructure:"sslmode"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
	MaxIdleConns int           `mapstructure:"max_idle_conns"`
	MaxLifetime  time.Duration `mapstructure:"max_lifetime"`
}

// SenderConfig controls the IR transmitter used by redeye
type SenderConfig struct {
	Port         string        `mapstructure:"port"`
	ReadyByte    string        `mapstructure:"ready_byte"`
	ReadyTimeout time.Duration `mapstructure:"ready_timeout"`
	ByteDelay    time.Duration `mapstructure:"byte_delay"`
	LineDelay    time.Duration `mapstructure:"line_delay"`
}

// Input sources
const (
	SourceSerial = "serial"
	SourceStdin  = "stdin"
	SourceFile   = "file"
	SourcePty    = "pty"
	SourceTCP    = "tcp"
	SourceSpool  = "spool"
	SourceNone   = "none"
)

// Printer models
const (
	Model82240A = "82240a"
	Model82240B = "82240b"
)

// Console port names
const (
	PortStdin  = "stdin"
	PortStdout = "stdout"
)

// ErrInvalidPort is returned for port names that include a device path
var ErrInvalidPort = errors.New("invalid serial port name")

// Flags returns the command line flags understood by Load
func Flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringP("config", "c", "", "Configuration file")
	fs.StringP("port", "p", "", "Serial port to use (auto-detected if empty), 'stdin' reads the console")
	fs.StringP("input-file", "i", "", "YAML print file, read instead of a serial port")
	fs.BoolP("model-a", "a", false, "Emulate the HP 82240A: ignore the RPL charset escape and use the model A font")
	fs.String("source", "", "Input source: serial, stdin, file, pty, tcp, spool or none")
	fs.Bool("serve", false, "Start the HTTP service")
	return fs
}

// Load loads configuration from file, environment variables and flags. A nil
// flag set loads without command line overrides.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variable support
	v.SetEnvPrefix("HP82240")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
		if file, _ := flags.GetString("config"); file != "" {
			v.SetConfigFile(file)
		}
	}

	// Read config file, it is optional unless given explicitly
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if flags != nil {
		if modelA, _ := flags.GetBool("model-a"); modelA {
			config.Printer.Model = Model82240A
		}
	}

	if err := normalize(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	bindings := map[string]string{
		"serial.port":    "port",
		"input.file":     "input-file",
		"input.source":   "source",
		"server.enabled": "serve",
	}
	for key, name := range bindings {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "hp82240-service")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)

	// Printer defaults
	v.SetDefault("printer.model", Model82240B)

	// Input defaults
	v.SetDefault("input.source", SourceSerial)
	v.SetDefault("input.charset", "HP82240A")
	v.SetDefault("input.tcp_addr", ":9100")
	v.SetDefault("input.tcp_idle_timeout", "5m")
	v.SetDefault("input.pty_link", "")
	v.SetDefault("input.spool_dir", "./spool")
	v.SetDefault("input.spool_settle", "200ms")

	// Serial defaults, the IR receiver talks 115200 8N1
	v.SetDefault("serial.port", "")
	v.SetDefault("serial.baud_rate", 115200)
	v.SetDefault("serial.data_bits", 8)
	v.SetDefault("serial.stop_bits", 1)
	v.SetDefault("serial.parity", "none")
	v.SetDefault("serial.read_timeout", "100ms")

	// Paper defaults
	v.SetDefault("paper.write_files", true)
	v.SetDefault("paper.output_dir", ".")
	v.SetDefault("paper.text_file", "Hp8224-Text.txt")
	v.SetDefault("paper.image_file", "Hp8224-Image.png")
	v.SetDefault("paper.scale", 1)
	v.SetDefault("paper.roll_size", 2000)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 28)
	v.SetDefault("logging.compress", true)

	// Server defaults
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8082")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.max_body_bytes", 1<<20)

	// Security defaults
	v.SetDefault("security.allowed_origins", []string{"*"})

	// Archive defaults
	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.queue_size", 256)
	v.SetDefault("archive.retention", "0")
	v.SetDefault("archive.cleanup_interval", "1h")
	v.SetDefault("archive.database.host", "localhost")
	v.SetDefault("archive.database.port", 5432)
	v.SetDefault("archive.database.user", "postgres")
	v.SetDefault("archive.database.password", "postgres")
	v.SetDefault("archive.database.dbname", "hp82240")
	v.SetDefault("archive.database.sslmode", "disable")
	v.SetDefault("archive.database.max_open_conns", 5)
	v.SetDefault("archive.database.max_idle_conns", 2)
	v.SetDefault("archive.database.max_lifetime", "5m")

	// Sender defaults
	v.SetDefault("sender.port", "")
	v.SetDefault("sender.ready_byte", "$")
	v.SetDefault("sender.ready_timeout", "5s")
	v.SetDefault("sender.byte_delay", "12820us")
	v.SetDefault("sender.line_delay", "1800ms")
}

// normalize derives the input source from the receiver shortcuts: an input
// file wins over a port, and the stdin port selects the console.
func normalize(config *Config) error {
	config.Printer.Model = strings.ToLower(strings.TrimSpace(config.Printer.Model))
	config.Input.Source = strings.ToLower(strings.TrimSpace(config.Input.Source))

	port, err := CheckPortName(config.Serial.Port, PortStdin)
	if err != nil {
		return err
	}
	config.Serial.Port = port

	switch {
	case config.Input.File != "" && config.Input.Source == SourceSerial:
		config.Input.Source = SourceFile
	case port == PortStdin && config.Input.Source == SourceSerial:
		config.Input.Source = SourceStdin
	}
	return nil
}

// CheckPortName validates a serial port given on the command line. Only the
// bare name is accepted, without /dev or a tty. prefix. The console keyword
// is matched case-insensitively and an empty name means auto-detect.
func CheckPortName(port, console string) (string, error) {
	port = strings.TrimSpace(port)
	if port == "" {
		return "", nil
	}
	if console != "" && strings.EqualFold(port, console) {
		return console, nil
	}
	ok := strings.Contains(port, "com")
	ok = ok || !(strings.Contains(port, "dev") || strings.Contains(port, "."))
	if !ok {
		return "", fmt.Errorf("%w %q: give only the name, without /dev or a prefix such as tty.", ErrInvalidPort, port)
	}
	return port, nil
}

// validate validates the configuration
func validate(config *Config) error {
	if err := oneOf("printer.model", config.Printer.Model, []string{Model82240A, Model82240B}); err != nil {
		return err
	}

	validSources := []string{SourceSerial, SourceStdin, SourceFile, SourcePty, SourceTCP, SourceSpool, SourceNone}
	if err := oneOf("input.source", config.Input.Source, validSources); err != nil {
		return err
	}
	if config.Input.Source == SourceFile && config.Input.File == "" {
		return fmt.Errorf("input.file is required for the file source")
	}
	if config.Input.Source == SourceNone && !config.Server.Enabled {
		return fmt.Errorf("input.source none requires server.enabled")
	}

	if config.Serial.BaudRate <= 0 {
		return fmt.Errorf("serial.baud_rate must be positive")
	}
	if err := oneOf("serial.parity", strings.ToLower(config.Serial.Parity), []string{"none", "odd", "even", "mark", "space"}); err != nil {
		return err
	}
	if config.Paper.Scale < 1 {
		return fmt.Errorf("paper.scale must be at least 1")
	}

	// Validate environment
	validEnvs := []string{"development", "staging", "production", "test"}
	if err := oneOf("app.environment", config.App.Environment, validEnvs); err != nil {
		return err
	}

	// Validate logging level
	validLevels := []string{"debug", "info", "warn", "error", "fatal"}
	if err := oneOf("logging.level", config.Logging.Level, validLevels); err != nil {
		return err
	}

	if config.Server.Enabled && config.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if config.Archive.Enabled && config.Archive.Database.Host == "" {
		return fmt.Errorf("archive.database.host is required")
	}

	return nil
}

func oneOf(key, value string, valid []string) error {
	for _, v := range valid {
		if value == v {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of: %v", key, valid)
}

// IsModelA reports whether the 82240A is emulated
func (c *Config) IsModelA() bool {
	return c.Printer.Model == Model82240A
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	db := c.Archive.Database
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		db.Host, db.Port, db.User, db.Password, db.DBName, db.SSLMode)
}

// GetServerAddr returns the server address
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// IsProduction checks if the environment is production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDebugEnabled checks if debug mode is enabled
func (c *Config) IsDebugEnabled() bool {
	return c.App.Debug || c.App.Environment == "development"
}
