package dataset

// Config holds configuration for the Store.
type Config struct {
	// Source is the path of the CSV file loaded at startup.
	// Default: "clash_wiki_dataset.csv"
	Source string

	// NameField is the field searched by FindByName and used as a record's label.
	// Default: "Card"
	NameField string

	// UnnamedLabel is the label of a record that has no NameField.
	// Default: "Registro sem nome"
	UnnamedLabel string

	// Comma is the CSV field delimiter.
	// Default: ','
	Comma rune
}

// DefaultConfig returns the configuration for the card statistics dataset.
func DefaultConfig() Config {
	return Config{
		Source:       "clash_wiki_dataset.csv",
		NameField:    "Card",
		UnnamedLabel: "Registro sem nome",
		Comma:        ',',
	}
}

// validate fills blank values with defaults.
func (c *Config) validate() {
	def := DefaultConfig()
	if c.Source == "" {
		c.Source = def.Source
	}
	if c.NameField == "" {
		c.NameField = def.NameField
	}
	if c.UnnamedLabel == "" {
		c.UnnamedLabel = def.UnnamedLabel
	}
	if c.Comma == 0 {
		c.Comma = def.Comma
	}
}
