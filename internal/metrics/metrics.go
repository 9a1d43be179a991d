package metrics

const Namespace = "corpus_indexer"

const (
	LabelStatus = "status"
	LabelKind   = "kind"
	LabelCorpus = "corpus"
)
