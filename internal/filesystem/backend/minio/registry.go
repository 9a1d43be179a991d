package minio

import (
	"net/url"

	"github.com/bornholm/corpus-indexer/internal/filesystem"
	"github.com/bornholm/corpus-indexer/internal/filesystem/backend"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
)

func init() {
	backend.RegisterBackendFactory("minio", FromDSN)
}

const (
	paramBucket = "bucket"
	paramRegion = "region"
	paramSecure = "secure"
	paramToken  = "token"
)

// FromDSN configures a backend from minio://<id>:<secret>@<endpoint>/<path>?bucket=<bucket>&secure=true.
func FromDSN(dsn *url.URL) (filesystem.Backend, error) {
	query := dsn.Query()

	options := &minio.Options{
		Region: query.Get(paramRegion),
		Secure: query.Get(paramSecure) == "true",
	}

	if options.Region == "" {
		options.Region = "us-east-1"
	}

	if dsn.User != nil {
		secret, _ := dsn.User.Password()
		options.Creds = credentials.NewStaticV4(dsn.User.Username(), secret, query.Get(paramToken))
	}

	bucket := query.Get(paramBucket)
	if bucket == "" {
		bucket = "default"
	}

	client, err := minio.New(dsn.Host, options)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return New(client, bucket, dsn.Path), nil
}
