// Package config loads the run configuration from a YAML file and HOUSING_ environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	d "github.com/invertedv/housing"
)

// EnvPrefix prefixes the environment overrides, e.g. HOUSING_SPLIT_SEED overrides split.seed.
const EnvPrefix = "HOUSING"

type Config struct {
	Data     Data     `mapstructure:"data"`
	Split    Split    `mapstructure:"split"`
	Features Features `mapstructure:"features"`
	Clean    Clean    `mapstructure:"clean"`
	Impute   Impute   `mapstructure:"impute"`
	Search   Search   `mapstructure:"search"`
	Output   Output   `mapstructure:"output"`
	Store    Store    `mapstructure:"store"`
	Log      Log      `mapstructure:"log"`
}

// Data are the two input files.
type Data struct {
	Transactions string `mapstructure:"transactions"`
	Macro        string `mapstructure:"macro"`
}

type Split struct {
	TrainFrac float64 `mapstructure:"trainFrac"`
	Seed      uint64  `mapstructure:"seed"`
}

type Features struct {
	Windows []int `mapstructure:"windows"`
}

type Clean struct {
	MinBuildYear int `mapstructure:"minBuildYear"`
	MaxBuildYear int `mapstructure:"maxBuildYear"`
}

type Impute struct {
	Iterations int    `mapstructure:"iterations"`
	Draws      int    `mapstructure:"draws"`
	Seed       uint64 `mapstructure:"seed"`
}

// Search tunes the elastic net. ValidFrac is the share of train sales held out to score trials.
type Search struct {
	Trials    int     `mapstructure:"trials"`
	Patience  int     `mapstructure:"patience"`
	ValidFrac float64 `mapstructure:"validFrac"`
	Seed      uint64  `mapstructure:"seed"`
}

// Output is where stacked tables are written as CSV. Empty means no CSV output.
type Output struct {
	CSVDir string `mapstructure:"csvDir"`
}

// Store is the database the stacked tables are saved to. An empty Dialect means no database.
type Store struct {
	Dialect  string `mapstructure:"dialect"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	Table    string `mapstructure:"table"`
}

type Log struct {
	Production bool `mapstructure:"production"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data.transactions", "train.csv")
	v.SetDefault("data.macro", "macro.csv")
	v.SetDefault("split.trainFrac", 0.75)
	v.SetDefault("split.seed", 2017)
	v.SetDefault("features.windows", []int{3, 7, 30, 90, 365})
	v.SetDefault("clean.minBuildYear", 1860)
	v.SetDefault("clean.maxBuildYear", 2018)
	v.SetDefault("impute.iterations", 5)
	v.SetDefault("impute.draws", 5)
	v.SetDefault("impute.seed", 500)
	v.SetDefault("search.trials", 100)
	v.SetDefault("search.patience", 10)
	v.SetDefault("search.validFrac", 0.2)
	v.SetDefault("search.seed", 123)
	v.SetDefault("output.csvDir", "")
	v.SetDefault("store.dialect", "")
	v.SetDefault("store.host", "localhost")
	v.SetDefault("store.port", 0)
	v.SetDefault("store.user", "")
	v.SetDefault("store.password", "")
	v.SetDefault("store.database", "default")
	v.SetDefault("store.table", "housing")
	v.SetDefault("log.production", false)
}

// Load reads fileName, if given, over the defaults and applies environment overrides.
func Load(fileName string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fileName != "" {
		v.SetConfigFile(fileName)
		if e := v.ReadInConfig(); e != nil {
			return nil, fmt.Errorf("reading config %s: %w", fileName, e)
		}
	}

	var cfg Config
	if e := v.Unmarshal(&cfg); e != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", e)
	}

	if e := cfg.Validate(); e != nil {
		return nil, e
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Data.Transactions == "" || c.Data.Macro == "" {
		return fmt.Errorf("both data.transactions and data.macro are required")
	}

	if c.Split.TrainFrac <= 0 || c.Split.TrainFrac >= 1 {
		return fmt.Errorf("split.trainFrac must be in (0, 1), got %v", c.Split.TrainFrac)
	}

	for _, w := range c.Features.Windows {
		if w < 1 {
			return fmt.Errorf("features.windows must be positive, got %d", w)
		}
	}

	if c.Clean.MinBuildYear > c.Clean.MaxBuildYear {
		return fmt.Errorf("clean.minBuildYear %d is after clean.maxBuildYear %d", c.Clean.MinBuildYear, c.Clean.MaxBuildYear)
	}

	if c.Impute.Iterations < 1 || c.Impute.Draws < 1 {
		return fmt.Errorf("impute.iterations and impute.draws must be at least 1")
	}

	if c.Search.Trials < 1 {
		return fmt.Errorf("search.trials must be at least 1, got %d", c.Search.Trials)
	}

	if c.Search.ValidFrac <= 0 || c.Search.ValidFrac >= 1 {
		return fmt.Errorf("search.validFrac must be in (0, 1), got %v", c.Search.ValidFrac)
	}

	switch strings.ToLower(c.Store.Dialect) {
	case "", d.CH, d.PG:
	default:
		return fmt.Errorf("store.dialect must be %s or %s, got %s", d.CH, d.PG, c.Store.Dialect)
	}

	return nil
}
