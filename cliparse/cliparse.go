package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Ledger backends
const (
	LedgerMemory = "memory"
	LedgerSQL    = "sql"
	LedgerEVM    = "evm"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string
	Ledger       string
	EthRPCURL    string
	Contract     string
	AdminKeySalt string
	VoterSalt    string

	PollInterval   time.Duration
	SubmitTimeout  time.Duration
	VotingDuration time.Duration
	Candidates     []string
}

// ParseFlags validates flags and sets port number
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var candidates string

	fs := flag.NewFlagSet("quickly-vote", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.Ledger, "ledger", "", "Ledger backend (memory, sql, or evm)")
	fs.StringVar(&cfg.EthRPCURL, "rpc", "", "Ethereum JSON-RPC URL")
	fs.StringVar(&cfg.Contract, "contract", "", "Election contract address")

	// Election timing
	fs.DurationVar(&cfg.PollInterval, "poll", 0, "Ledger poll interval")
	fs.DurationVar(&cfg.SubmitTimeout, "submit-timeout", 0, "Vote submission timeout")
	fs.DurationVar(&cfg.VotingDuration, "duration", 0, "Start voting for this long at boot (memory and sql)")
	fs.StringVar(&candidates, "candidates", "", "Comma-separated candidate names for a new election")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.AdminKeySalt, "admin-salt", "", "Admin key salt (prefer env)")
	fs.StringVar(&cfg.VoterSalt, "voter-salt", "", "Voter hash salt (prefer env)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3318 // default
		}
	}

	if cfg.Ledger == "" {
		cfg.Ledger = os.Getenv("LEDGER")
		if cfg.Ledger == "" {
			cfg.Ledger = LedgerSQL
		}
	}

	var err error
	if cfg.PollInterval, err = durationEnv(cfg.PollInterval, "POLL_INTERVAL", time.Second); err != nil {
		return Config{}, err
	}
	if cfg.SubmitTimeout, err = durationEnv(cfg.SubmitTimeout, "SUBMIT_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.VotingDuration, err = durationEnv(cfg.VotingDuration, "VOTING_DURATION", 0); err != nil {
		return Config{}, err
	}
	if cfg.PollInterval <= 0 {
		return Config{}, errors.New("poll interval must be positive")
	}

	if candidates == "" {
		candidates = os.Getenv("CANDIDATES")
	}
	cfg.Candidates = splitNames(candidates)

	// Secrets - MUST be provided
	if cfg.AdminKeySalt == "" {
		cfg.AdminKeySalt = os.Getenv("ADMIN_KEY_SALT")
	}
	if cfg.AdminKeySalt == "" {
		return Config{}, errors.New("ADMIN_KEY_SALT required")
	}

	switch cfg.Ledger {
	case LedgerMemory:
	case LedgerSQL:
		if cfg.DatabaseURL == "" {
			cfg.DatabaseURL = os.Getenv("DATABASE_URL")
		}
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
		}

		if cfg.DatabaseType == "" {
			cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
			if cfg.DatabaseType == "" {
				cfg.DatabaseType = "sqlite"
			}
		}

		if cfg.VoterSalt == "" {
			cfg.VoterSalt = os.Getenv("VOTER_SALT")
		}
		if cfg.VoterSalt == "" {
			return Config{}, errors.New("VOTER_SALT required")
		}
	case LedgerEVM:
		if cfg.EthRPCURL == "" {
			cfg.EthRPCURL = os.Getenv("ETH_RPC_URL")
		}
		if cfg.EthRPCURL == "" {
			return Config{}, errors.New("ethereum RPC URL required (use -rpc or ETH_RPC_URL env)")
		}

		if cfg.Contract == "" {
			cfg.Contract = os.Getenv("ELECTION_CONTRACT")
		}
		if cfg.Contract == "" {
			return Config{}, errors.New("contract address required (use -contract or ELECTION_CONTRACT env)")
		}
	default:
		return Config{}, fmt.Errorf("unknown ledger %q (want memory, sql, or evm)", cfg.Ledger)
	}

	return cfg, nil
}

// durationEnv keeps a flag value, else reads key, else returns def
func durationEnv(flagValue time.Duration, key string, def time.Duration) (time.Duration, error) {
	if flagValue != 0 {
		return flagValue, nil
	}
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env variable: %w", key, err)
	}
	return d, nil
}

func splitNames(raw string) []string {
	var names []string
	for _, name := range strings.Split(raw, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}
