package torrent

import (
	"sync/atomic"

	"github.com/Falcosc/libtorrent/bencode"
	"github.com/Falcosc/libtorrent/internal/settings"
	"github.com/juju/ratelimit"
	bolt "go.etcd.io/bbolt"
)

// Version of the library. It is sent in the default user agent.
const Version = settings.Version

// SettingsPack is a sparse set of setting values.
type SettingsPack = settings.Pack

// NewSettingsPack returns an empty pack.
func NewSettingsPack() *SettingsPack {
	return settings.NewPack()
}

// LoadSettingsPack reads a pack from a bencoded dictionary. Unknown keys and invalid values are skipped.
func LoadSettingsPack(b []byte) (*SettingsPack, error) {
	v, err := bencode.Decode(b)
	if err != nil {
		return nil, err
	}
	d, ok := v.(bencode.Dict)
	if !ok {
		return nil, &bencode.SyntaxError{Msg: "settings are not a dictionary"}
	}
	return settings.LoadPack(d), nil
}

// ApplySettings validates every key of m and applies them. Nothing is changed if any key fails.
func (s *Session) ApplySettings(m map[string]any) error {
	p, err := settings.FromMap(m)
	if err != nil {
		return err
	}
	s.ApplySettingsPack(p)
	return nil
}

// ApplySettingsPack applies the values of p.
// Changes to "enable_dht" take effect when the next session is created.
func (s *Session) ApplySettingsPack(p *SettingsPack) {
	s.mSettings.Lock()
	s.settings.Apply(p)
	s.applySettingsLocked()
	s.mSettings.Unlock()
	if s.db != nil {
		s.saveSettings()
	}
}

// GetSettings returns the value of every setting keyed by name.
func (s *Session) GetSettings() map[string]any {
	s.mSettings.RLock()
	defer s.mSettings.RUnlock()
	return s.settings.Map()
}

// SaveSettings returns the settings that differ from the defaults as a bencoded dictionary.
func (s *Session) SaveSettings() ([]byte, error) {
	s.mSettings.RLock()
	d := s.settings.Dict()
	s.mSettings.RUnlock()
	return bencode.Encode(d)
}

func (s *Session) saveSettings() {
	b, err := s.SaveSettings()
	if err == nil {
		err = s.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(sessionBucket).Put(settingsKey, b)
		})
	}
	if err != nil {
		s.log.Errorln("cannot save settings:", err.Error())
	}
}

// applySettingsLocked updates the state derived from settings.
func (s *Session) applySettingsLocked() {
	atomic.StoreUint32(&s.alertMask, uint32(s.settings.Int("alert_mask")))
	if s.alerts != nil {
		s.alerts.SetLimit(int(s.settings.Int("alert_queue_size")))
	}
	s.downloadBucket = newBucket(s.settings.Int("download_rate_limit"))
	s.uploadBucket = newBucket(s.settings.Int("upload_rate_limit"))
}

// newBucket returns a bucket that refills rate bytes per second or nil for unlimited.
func newBucket(rate int64) *ratelimit.Bucket {
	if rate <= 0 {
		return nil
	}
	return ratelimit.NewBucketWithRate(float64(rate), rate)
}

func (s *Session) rateLimiters() (download, upload *ratelimit.Bucket) {
	s.mSettings.RLock()
	defer s.mSettings.RUnlock()
	return s.downloadBucket, s.uploadBucket
}

func (s *Session) userAgent() string {
	s.mSettings.RLock()
	defer s.mSettings.RUnlock()
	return s.settings.String("user_agent")
}

func (s *Session) trackerMaxResponseLength() int64 {
	s.mSettings.RLock()
	defer s.mSettings.RUnlock()
	return s.settings.Int("tracker_maximum_response_length")
}
