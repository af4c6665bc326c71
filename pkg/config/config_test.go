package config_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papyri/bookvec/pkg/config"
)

func TestConfig(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Config Suite")
}

var _ = Describe("Configer config", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("LoadConfig", func() {
		It("returns default config when no config file exists", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg).NotTo(BeNil())

			defaults := config.NewDefaultConfig()
			Expect(cfg.Version).To(Equal(defaults.Version))
			Expect(cfg.DB.Provider).To(Equal(defaults.DB.Provider))
			Expect(cfg.DB.Target).To(Equal(defaults.DB.Target))
			Expect(cfg.DB.PrecisionBits).To(Equal(defaults.DB.PrecisionBits))
			Expect(cfg.DB.Dimensions).To(Equal(defaults.DB.Dimensions))
			Expect(cfg.Query.TopK).To(Equal(defaults.Query.TopK))
			Expect(cfg.Embedding.Provider).To(Equal(defaults.Embedding.Provider))
			Expect(cfg.Embedding.Target).To(Equal(defaults.Embedding.Target))
			Expect(cfg.Embedding.Model).To(Equal(defaults.Embedding.Model))
			Expect(cfg.Events.Topic).To(Equal(defaults.Events.Topic))
		})

		It("loads a valid config file", func() {
			data := `version = 0

[db]
provider = "oracle"
target = "adb.example.com:1522/mainpdb"
wallet_path = "/opt/wallet"
precision_bits = 64

[query]
top_k = 5
similarity_floor = 0.35

[embedding]
model = "embeddinggemma"
`
			err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
			Expect(err).NotTo(HaveOccurred())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg).NotTo(BeNil())
			Expect(cfg.Version).To(Equal(0))
			Expect(cfg.DB.Provider).To(Equal("oracle"))
			Expect(cfg.DB.Target).To(Equal("adb.example.com:1522/mainpdb"))
			Expect(cfg.DB.WalletPath).To(Equal("/opt/wallet"))
			Expect(cfg.DB.PrecisionBits).To(Equal(uint(64)))
			Expect(cfg.Query.TopK).To(Equal(uint(5)))
			Expect(cfg.Query.SimilarityFloor).To(BeNumerically("~", 0.35, 1e-9))
			Expect(cfg.Embedding.Model).To(Equal("embeddinggemma"))
		})

		It("fills unset fields from defaults", func() {
			data := `[db]
provider = "postgres"
`
			err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
			Expect(err).NotTo(HaveOccurred())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.DB.Provider).To(Equal("postgres"))

			defaults := config.NewDefaultConfig()
			Expect(cfg.DB.PrecisionBits).To(Equal(defaults.DB.PrecisionBits))
			Expect(cfg.Query.TopK).To(Equal(defaults.Query.TopK))
			Expect(cfg.Embedding.Model).To(Equal(defaults.Embedding.Model))
		})

		It("rejects an unsupported config version", func() {
			data := `version = 99`
			err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
			Expect(err).NotTo(HaveOccurred())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.LoadConfig()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unsupported config version"))
		})
	})

	Describe("SaveConfig", func() {
		It("round-trips a config through save and load", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg := config.NewDefaultConfig()
			cfg.DB.Provider = "qdrant"
			cfg.DB.Target = "http://localhost:6334"
			cfg.Query.SimilarityFloor = 0.2
			cfg.Events.Enabled = true
			cfg.Events.Brokers = []string{"localhost:9092"}

			Expect(c.SaveConfig(cfg)).To(Succeed())

			loaded, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.DB.Provider).To(Equal("qdrant"))
			Expect(loaded.DB.Target).To(Equal("http://localhost:6334"))
			Expect(loaded.Query.SimilarityFloor).To(BeNumerically("~", 0.2, 1e-9))
			Expect(loaded.Events.Enabled).To(BeTrue())
			Expect(loaded.Events.Brokers).To(Equal([]string{"localhost:9092"}))
		})

		It("rejects a nil config", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SaveConfig(nil)).To(HaveOccurred())
		})
	})

	Describe("SetConfigValue and GetConfigValue", func() {
		It("sets and gets string keys", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("db.provider", "oracle")).To(Succeed())

			got, err := c.GetConfigValue("db.provider")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal("oracle"))
		})

		It("sets and gets numeric keys", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("query.top_k", "25")).To(Succeed())

			got, err := c.GetConfigValue("query.top_k")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal("25"))
		})

		It("parses broker lists from comma-separated values", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("events.brokers", "a:9092, b:9092")).To(Succeed())

			got, err := c.GetConfigValue("events.brokers")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal("a:9092,b:9092"))
		})

		It("rejects unknown keys", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("nope.nothing", "x")).To(HaveOccurred())

			_, err = c.GetConfigValue("nope.nothing")
			Expect(err).To(HaveOccurred())
		})

		It("rejects malformed numeric values", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("db.precision_bits", "sixty-four")).To(HaveOccurred())
		})
	})

	Describe("ValidConfigKeys", func() {
		It("covers every supported key exactly once", func() {
			keys := config.ValidConfigKeys()
			seen := map[string]int{}
			for _, k := range keys {
				seen[k]++
				Expect(config.IsValidConfigKey(k)).To(BeTrue())
			}
			for k, n := range seen {
				Expect(n).To(Equal(1), "duplicate key %q", k)
			}
			Expect(keys).To(ContainElement("db.provider"))
			Expect(keys).To(ContainElement("query.similarity_floor"))
			Expect(keys).To(ContainElement("events.topic"))
		})
	})
})

var _ = Describe("InitViper", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "viper-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("applies defaults when no config file exists", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		defaults := config.NewDefaultConfig()
		Expect(v.GetString("db.provider")).To(Equal(defaults.DB.Provider))
		Expect(v.GetUint("query.top_k")).To(Equal(defaults.Query.TopK))
		Expect(v.GetString("embedding.model")).To(Equal(defaults.Embedding.Model))
	})

	It("prefers config file values over defaults", func() {
		data := `[db]
provider = "postgres"
target = "postgres://localhost:5432/books"
`
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
		Expect(err).NotTo(HaveOccurred())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("db.provider")).To(Equal("postgres"))
		Expect(v.GetString("db.target")).To(Equal("postgres://localhost:5432/books"))
	})

	It("prefers environment variables over config file values", func() {
		data := `[db]
provider = "postgres"
`
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
		Expect(err).NotTo(HaveOccurred())

		os.Setenv("BOOKVEC_DB_PROVIDER", "qdrant")
		defer os.Unsetenv("BOOKVEC_DB_PROVIDER")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("db.provider")).To(Equal("qdrant"))
	})

	It("prefers bound flags over everything else", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		fs := config.FlagSet{
			config.FlagDBProvider: {
				Name:        "db-provider",
				ViperKey:    "db.provider",
				Description: "vector store backend",
			},
		}

		var provider string
		config.AddStringFlag(cmd, fs, config.FlagDBProvider, &provider)
		Expect(cmd.Flags().Set("db-provider", "oracle")).To(Succeed())

		config.BindRegisteredFlags(v, cmd, fs, []string{config.FlagDBProvider})
		Expect(v.GetString("db.provider")).To(Equal("oracle"))
	})
})
