package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	NameDocumentsIndexed = "documents_indexed_total"
	NameDocumentsFailed  = "documents_failed_total"
	NameBulkChunks       = "bulk_chunks_total"
)

var DocumentsIndexed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      NameDocumentsIndexed,
		Help:      "Documents successfully sent to an index",
		Namespace: Namespace,
	},
	[]string{LabelCorpus},
)

var DocumentsFailed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      NameDocumentsFailed,
		Help:      "Documents rejected by the reader or the engine",
		Namespace: Namespace,
	},
	[]string{LabelCorpus},
)

var BulkChunks = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      NameBulkChunks,
		Help:      "Bulk requests submitted",
		Namespace: Namespace,
	},
	[]string{LabelCorpus},
)
