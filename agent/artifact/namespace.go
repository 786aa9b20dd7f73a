package artifact

import (
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

const runTimeLayout = "20060102_150405"

// NewRunID returns run_<timestamp>_<suffix>. The random suffix keeps runs
// started within the same second apart.
func NewRunID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return "run_" + now.UTC().Format(runTimeLayout) + "_" + suffix
}

func RunPrefix(runID string) string {
	return path.Join("runs", runID)
}

// Namespace scopes every key a run writes under its own prefix.
type Namespace struct {
	Bucket string
	Prefix string
}

func NewNamespace(bucket, runID string) Namespace {
	return Namespace{Bucket: bucket, Prefix: RunPrefix(runID)}
}

func (n Namespace) Key(name string) string {
	return path.Join(n.Prefix, name)
}
