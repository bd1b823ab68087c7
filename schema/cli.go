package schema

type Config struct {
	Mysql     string `yaml:"mysql"`
	SqliteDir string `yaml:"sqliteDir"`
	UseSqlite bool   `yaml:"useSqlite"`
	Port      string `yaml:"port"`
	BoltDir   string `yaml:"boltDir"`

	CoreSymbol    string `yaml:"coreSymbol"`    // e.g. "SYS"
	CorePrecision uint8  `yaml:"corePrecision"` // e.g. 4
	TickInterval  int    `yaml:"tickInterval"`  // seconds between rex sweeps
	SweepMax      int    `yaml:"sweepMax"`      // rows drained per sweep

	Kafka Kafka `yaml:"kafka"`
}

type Kafka struct {
	Start bool   `yaml:"start"`
	Uri   string `yaml:"uri"`
}
