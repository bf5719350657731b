package types

// `json:"..."` and `yaml:"..."` tags keep the manifest output stable across formats.

// Result is the outcome of hashing one file.
type Result struct {
	Path string `json:"path" yaml:"path"`
	Hash string `json:"hash" yaml:"hash"`
	Size int64  `json:"size" yaml:"size"`
}

// ChunkRef identifies one content-defined chunk of a file by its position and digest.
type ChunkRef struct {
	Hash   string `json:"hash" yaml:"hash"`
	Offset int64  `json:"offset" yaml:"offset"`
	Size   int64  `json:"size" yaml:"size"`
}

// Manifest describes a file as a whole-file digest plus its chunk list.
type Manifest struct {
	Path      string     `json:"path" yaml:"path"`
	Hash      string     `json:"hash" yaml:"hash"`
	TotalSize int64      `json:"totalSize" yaml:"totalSize"`
	Chunks    []ChunkRef `json:"chunks" yaml:"chunks"`
}
