package mirrors

type Config struct {
	// Root is the directory the owner/name hierarchy is created under.
	Root string
}
