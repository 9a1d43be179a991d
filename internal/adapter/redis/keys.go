package redis

import (
	"strings"
	"time"

	"github.com/bornholm/corpus-indexer/internal/core/model"
)

const (
	DefaultPrefix = "corpus-indexer"
	// Chains not consumed in this delay are forgotten
	chainTTL = 7 * 24 * time.Hour
)

type keys struct {
	prefix string
}

func (k keys) pending() string {
	return k.prefix + ":chains:pending"
}

func (k keys) chain(id model.ChainID) string {
	return k.prefix + ":chain:" + string(id)
}

func (k keys) canceled(id model.ChainID) string {
	return k.prefix + ":chain:" + string(id) + ":canceled"
}

func (k keys) lock(name string) string {
	return k.prefix + ":lock:" + name
}

// pendingEntry references a chain and its job, so that a chain whose payload
// is lost can still be reported.
func pendingEntry(chainID model.ChainID, jobID model.JobID) string {
	return string(chainID) + "/" + string(jobID)
}

func parsePendingEntry(entry string) (model.ChainID, model.JobID) {
	chainID, jobID, _ := strings.Cut(entry, "/")
	return model.ChainID(chainID), model.JobID(jobID)
}
