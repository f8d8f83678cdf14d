package constant

import (
	"os"
	"time"
)

// <NodeDir>/                    (e.g., /home/operator/.pspawner)
// └── config/
//	└── pspawner_config.json
// └── databases/
//	└── spawner.db
// └── store/
//	└── .localKeyValueStorage

const (
	NodeDir = ".pspawner"

	ConfigSubdir   = "config"
	ConfigFileName = "pspawner_config.json"

	DatabasesSubdir  = "databases"
	DatabaseFileName = "spawner.db"

	FileStoreSubdir   = "store"
	FileStoreFileName = ".localKeyValueStorage"
)

// CurrentRequestKey is the single key the progress record lives under.
const CurrentRequestKey = "currentRequest"

const (
	// StakeUnitETH is the amount of ETH a single validator deposit requires.
	StakeUnitETH = 32

	// ValidatorsPerRequest is the number of validators asked for in one creation request.
	ValidatorsPerRequest = 1

	// ProvisioningRequestType asks the service to return unencrypted deposit material.
	ProvisioningRequestType = "without-encrypt-key"

	DefaultErrorThreshold       = 5
	DefaultPollAttempts         = 20
	DefaultPollDelay            = 3 * time.Second
	DefaultLoopInterval         = 1 * time.Second
	DefaultOperationalPeriod    = 90
	DefaultConfirmationTimeout  = 30 * time.Minute
	DefaultNotFoundRetries      = 10
	DefaultConfirmationInterval = 4 * time.Second
)

var DefaultNodeHome = os.ExpandEnv("$HOME/") + NodeDir
