package server

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/RedaDarwiche/skyfight-server/game"
)

// Config 进程配置
// 取值顺序：默认值，环境变量（可由 .env 文件预置），命令行参数
type Config struct {
	Addr     string
	LogFile  string
	LogLevel string

	MapSize      float64
	AITickHz     int
	PowerupFloor int
	OmegaChance  float64
	PickupRadius float64
	NameMaxLen   int
	ChatMaxLen   int

	AdminEmails []string
	AdminSecret string

	PowerupTopUpInterval time.Duration
	PowerupRespawnDelay  time.Duration
	SessionSweepInterval time.Duration

	// Population 启动时生成的 NPC/Boss 槽位表
	Population []game.Slot
}

func DefaultConfig() Config {
	return Config{
		Addr:                 ":3000",
		LogFile:              "skyfight.log",
		LogLevel:             "info",
		MapSize:              game.DefaultMapSize,
		AITickHz:             game.ReferenceTickHz,
		PowerupFloor:         game.DefaultPowerupFloor,
		OmegaChance:          game.DefaultOmegaChance,
		PickupRadius:         game.PickupRadius,
		NameMaxLen:           game.DefaultNameMaxLen,
		ChatMaxLen:           game.DefaultChatMaxLen,
		PowerupTopUpInterval: game.PowerupTopUpInterval,
		PowerupRespawnDelay:  game.PowerupRespawnDelay,
		SessionSweepInterval: game.SessionSweepInterval,
		Population:           game.DefaultPopulation(),
	}
}

// LoadConfig 读取 envFile（文件不存在也可）并应用环境变量覆盖
func LoadConfig(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	cfg := DefaultConfig()
	err := cfg.applyEnv(os.LookupEnv)
	return cfg, err
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	var errs error
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	float := func(key string, dst *float64) {
		if v, ok := lookup(key); ok && v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = f
		}
	}

	if port, ok := lookup("PORT"); ok && port != "" {
		c.Addr = ":" + port
	}
	str("ADDR", &c.Addr)
	str("LOG_FILE", &c.LogFile)
	str("LOG_LEVEL", &c.LogLevel)
	str("ADMIN_SECRET", &c.AdminSecret)
	float("MAP_SIZE", &c.MapSize)
	float("OMEGA_CHANCE", &c.OmegaChance)
	num("AI_TICK_HZ", &c.AITickHz)
	num("POWERUP_FLOOR", &c.PowerupFloor)
	num("NAME_MAX_LEN", &c.NameMaxLen)
	num("CHAT_MAX_LEN", &c.ChatMaxLen)
	if v, ok := lookup("ADMIN_EMAILS"); ok {
		c.AdminEmails = splitList(v)
	}
	return errs
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate 一次性报告所有非法字段
func (c Config) Validate() error {
	var errs error
	if c.MapSize <= 2*game.SpawnMargin {
		errs = multierr.Append(errs, fmt.Errorf("map size %.0f must exceed %.0f", c.MapSize, 2*game.SpawnMargin))
	}
	if c.AITickHz < 5 || c.AITickHz > 20 {
		errs = multierr.Append(errs, fmt.Errorf("ai tick rate %d outside [5, 20]", c.AITickHz))
	}
	if c.PowerupFloor < 0 {
		errs = multierr.Append(errs, fmt.Errorf("powerup floor %d is negative", c.PowerupFloor))
	}
	if c.OmegaChance < 0 || c.OmegaChance > 1 {
		errs = multierr.Append(errs, fmt.Errorf("omega chance %v outside [0, 1]", c.OmegaChance))
	}
	if c.NameMaxLen < 1 {
		errs = multierr.Append(errs, errors.New("name max length must be positive"))
	}
	if c.ChatMaxLen < 1 {
		errs = multierr.Append(errs, errors.New("chat max length must be positive"))
	}
	if c.PickupRadius <= 0 {
		errs = multierr.Append(errs, errors.New("pickup radius must be positive"))
	}
	if c.PowerupTopUpInterval <= 0 || c.SessionSweepInterval <= 0 {
		errs = multierr.Append(errs, errors.New("top-up and sweep intervals must be positive"))
	}
	for _, s := range c.Population {
		if _, err := game.StatsFor(s.Rarity); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

func (c Config) tickInterval() time.Duration {
	return time.Second / time.Duration(c.AITickHz)
}

// stepFactor 按 Tick 频率缩放每帧速度，保证 NPC 每秒移动距离不变
func (c Config) stepFactor() float64 {
	return float64(game.ReferenceTickHz) / float64(c.AITickHz)
}
