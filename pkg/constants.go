package masshash

// Context constants for index skiplist entries
const (
	MergedContext = "merged" // inserted by the hasher's merge pass
	CallerContext = "caller" // inserted later through Index.Put
)

// Hash size constants
const (
	HashSizeSHA1   = 20
	HashSizeSHA256 = 32
	HashSizeSHA512 = 64
	HashSizeBLAKE3 = 32
	HashSizeXXH3   = 8
)

// DefaultHashName is the algorithm used when nothing else is configured.
const DefaultHashName = "sha1"

// MaxRenderedProblems is the number of problems an IntegrityError lists
// in its message before summarising the remainder.
const MaxRenderedProblems = 30

// Index skiplist tuning
const (
	indexMaxLevels = 24
	keySeparator   = "\x00"
)
