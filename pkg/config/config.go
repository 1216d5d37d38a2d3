package config

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Config manages partitioning configuration using Viper
type Config struct {
	v *viper.Viper

	// Per-part weight bounds. Read on every assignment, so they are kept out of viper.
	UpperAllowedPartitionWeight []int64
	LowerAllowedPartitionWeight []int64

	// BoundsTotalWeight is the total graph weight the bounds were computed
	// for, or -1 if they were never computed.
	BoundsTotalWeight int64
}

// NewConfig creates a new configuration with defaults
func NewConfig() *Config {
	v := viper.New()

	// Partition parameters
	v.SetDefault("partition.k", 2)
	v.SetDefault("partition.epsilon", 0.03)
	v.SetDefault("partition.total_graph_weight", 0)

	// Initial partitioning parameters
	v.SetDefault("initial_partitioning.refinement", true)
	v.SetDefault("initial_partitioning.rollback", true)
	v.SetDefault("initial_partitioning.seed", time.Now().UnixNano())

	// Local search parameters
	v.SetDefault("fm.max_fruitless_moves", 50)

	// Debug parameters
	v.SetDefault("debug.verify_cut", false)

	// Logging parameters
	v.SetDefault("logging.level", "info")

	c := &Config{v: v, BoundsTotalWeight: -1}
	c.resizeBounds()
	return c
}

// LoadFromFile loads configuration from file
func (c *Config) LoadFromFile(path string) error {
	c.v.SetConfigFile(path)
	if err := c.v.ReadInConfig(); err != nil {
		return err
	}
	c.resizeBounds()
	return nil
}

// Set allows dynamic configuration changes
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
	if key == "partition.k" {
		c.resizeBounds()
	}
}

func (c *Config) resizeBounds() {
	k := c.K()
	if k < 0 {
		k = 0
	}
	if len(c.UpperAllowedPartitionWeight) != k {
		c.UpperAllowedPartitionWeight = make([]int64, k)
		c.LowerAllowedPartitionWeight = make([]int64, k)
		c.BoundsTotalWeight = -1
	}
}

// Getters for partition parameters
func (c *Config) K() int { return c.v.GetInt("partition.k") }
func (c *Config) Epsilon() float64 { return c.v.GetFloat64("partition.epsilon") }
func (c *Config) TotalGraphWeight() int64 { return c.v.GetInt64("partition.total_graph_weight") }
func (c *Config) SetTotalGraphWeight(w int64) { c.v.Set("partition.total_graph_weight", w) }

func (c *Config) Refinement() bool { return c.v.GetBool("initial_partitioning.refinement") }
func (c *Config) Rollback() bool { return c.v.GetBool("initial_partitioning.rollback") }
func (c *Config) Seed() int64 { return c.v.GetInt64("initial_partitioning.seed") }

func (c *Config) MaxFruitlessMoves() int { return c.v.GetInt("fm.max_fruitless_moves") }

func (c *Config) VerifyCut() bool { return c.v.GetBool("debug.verify_cut") }

func (c *Config) LogLevel() string { return c.v.GetString("logging.level") }

// CreateLogger creates a zerolog logger based on config
func (c *Config) CreateLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}).Level(level).With().Timestamp().Str("service", "initial_partitioning").Logger()
}
