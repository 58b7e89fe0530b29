package torrent

import (
	"os"
	"time"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v2"
)

// Config for Session.
type Config struct {
	// Database file to save resume data and settings. Persistence is disabled when empty.
	Database string `yaml:"database"`
	// DataDir is the save path of torrents added without one.
	DataDir string `yaml:"data-dir"`
	// Interval between writes of resume data of all torrents to the database.
	ResumeWriteInterval time.Duration `yaml:"resume-write-interval"`
	// Host to listen for DHT node.
	DHTAddress string `yaml:"dht-address"`
	// UDP port to listen for DHT node.
	DHTPort uint16 `yaml:"dht-port"`
	// DHT routers used for bootstrapping. Comma separated host:port list.
	DHTRouters string `yaml:"dht-routers"`
	// File of blocked IP ranges loaded when the session starts. One CIDR block, address or "first - last" range per line.
	BlocklistFile string `yaml:"blocklist-file"`
	// Max size of a torrent file read by AddTorrentFile.
	MaxTorrentSize int64 `yaml:"max-torrent-size"`
	// Time to wait for a tracker to respond to a scrape request.
	TrackerHTTPTimeout time.Duration `yaml:"tracker-http-timeout"`
	// Settings applied on top of the defaults and the settings saved in the database.
	// Keys are setting names, values must have the type of the setting.
	Settings map[string]any `yaml:"settings"`

	// Engine performs disk and network I/O of torrents. Nil means torrents are only tracked, never transferred.
	Engine Engine `yaml:"-"`
}

// DefaultConfig for Session. Do not pass zero value Config to NewSession. Copy this struct and modify instead.
var DefaultConfig = Config{
	Database:            "~/.libtorrent/session.db",
	DataDir:             "~/.libtorrent/data",
	ResumeWriteInterval: 30 * time.Second,
	DHTAddress:          "0.0.0.0",
	DHTPort:             7246,
	DHTRouters:          "router.bittorrent.com:6881,dht.transmissionbt.com:6881,router.utorrent.com:6881,dht.libtorrent.org:25401",
	MaxTorrentSize:      10 << 20,
	TrackerHTTPTimeout:  10 * time.Second,
}

// LoadConfig reads a YAML file on top of DefaultConfig. A missing file is not an error.
func LoadConfig(filename string) (*Config, error) {
	c := DefaultConfig
	filename, err := homedir.Expand(filename)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(filename)
	if os.IsNotExist(err) {
		return &c, nil
	}
	if err != nil {
		return nil, err
	}
	if err = yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) expandPaths() error {
	var err error
	if c.Database != "" {
		c.Database, err = homedir.Expand(c.Database)
		if err != nil {
			return err
		}
	}
	if c.BlocklistFile != "" {
		c.BlocklistFile, err = homedir.Expand(c.BlocklistFile)
		if err != nil {
			return err
		}
	}
	c.DataDir, err = homedir.Expand(c.DataDir)
	return err
}
