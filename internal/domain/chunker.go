package domain

// ChunkerVersion tags the chunking algorithm in logs.
type ChunkerVersion string

// ChunkerVersionRecursive is the recursive character splitter with overlap.
const ChunkerVersionRecursive ChunkerVersion = "recursive-v1"

// Chunk is a piece of one candidate document's summary.
type Chunk struct {
	DocIndex int    // index of the parent document in the chunked slice
	Ordinal  int    // position within the parent (0-indexed)
	Content  string // chunk text
	Hash     string // stable hash of parent title and content
}

// Chunker splits documents into chunks.
type Chunker interface {
	Chunk(docs []Document) []Chunk
	Version() ChunkerVersion
}

type recursiveChunker struct {
	splitter *TextSplitter
	hasher   SourceHashPolicy
}

// NewChunker returns a Chunker backed by splitter. Chunks are hashed with hasher.
func NewChunker(splitter *TextSplitter, hasher SourceHashPolicy) Chunker {
	return &recursiveChunker{splitter: splitter, hasher: hasher}
}

func (c *recursiveChunker) Version() ChunkerVersion {
	return ChunkerVersionRecursive
}

// Chunk splits every summary. Documents whose summary yields nothing contribute no chunks.
func (c *recursiveChunker) Chunk(docs []Document) []Chunk {
	var chunks []Chunk
	for i, doc := range docs {
		for ordinal, text := range c.splitter.Split(doc.Summary) {
			chunks = append(chunks, Chunk{
				DocIndex: i,
				Ordinal:  ordinal,
				Content:  text,
				Hash:     c.hasher.Compute(doc.Title, text),
			})
		}
	}
	return chunks
}
