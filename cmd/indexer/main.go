package main

import (
	"github.com/bornholm/corpus-indexer/internal/command"
	"github.com/bornholm/corpus-indexer/internal/command/index"
	"github.com/bornholm/corpus-indexer/internal/command/indices"
	"github.com/bornholm/corpus-indexer/internal/command/jobs"
	"github.com/bornholm/corpus-indexer/internal/command/prune"
	"github.com/bornholm/corpus-indexer/internal/command/serve"
	"github.com/bornholm/corpus-indexer/internal/command/worker"

	// Adapters
	_ "github.com/bornholm/corpus-indexer/internal/adapter/bleve"
	_ "github.com/bornholm/corpus-indexer/internal/adapter/elasticsearch"
	_ "github.com/bornholm/corpus-indexer/internal/adapter/flock"
	_ "github.com/bornholm/corpus-indexer/internal/adapter/memory"
	_ "github.com/bornholm/corpus-indexer/internal/adapter/redis"

	// Filesystem backends
	_ "github.com/bornholm/corpus-indexer/internal/filesystem/backend/ftp"
	_ "github.com/bornholm/corpus-indexer/internal/filesystem/backend/git"
	_ "github.com/bornholm/corpus-indexer/internal/filesystem/backend/local"
	_ "github.com/bornholm/corpus-indexer/internal/filesystem/backend/memory"
	_ "github.com/bornholm/corpus-indexer/internal/filesystem/backend/minio"
	_ "github.com/bornholm/corpus-indexer/internal/filesystem/backend/sftp"
	_ "github.com/bornholm/corpus-indexer/internal/filesystem/backend/smb"
	_ "github.com/bornholm/corpus-indexer/internal/filesystem/backend/webdav"
)

func main() {
	command.Main(
		"indexer",
		"Manage the search indices of the corpora",
		index.Command(),
		jobs.Command(),
		indices.Command(),
		prune.Command(),
		serve.Command(),
		worker.Command(),
	)
}
