package torrent

import (
	"fmt"
	"net/netip"
	"strings"
	"time"
)

// Category is a bit mask used for filtering alerts with the "alert_mask" setting.
type Category uint32

// Alert categories.
const (
	ErrorCategory              Category = 1 << 0
	PeerCategory               Category = 1 << 1
	PortMappingCategory        Category = 1 << 2
	StorageCategory            Category = 1 << 3
	TrackerCategory            Category = 1 << 4
	ConnectCategory            Category = 1 << 5
	StatusCategory             Category = 1 << 6
	IPBlockCategory            Category = 1 << 8
	PerformanceWarningCategory Category = 1 << 9
	DHTCategory                Category = 1 << 10
	StatsCategory              Category = 1 << 11
	SessionLogCategory         Category = 1 << 13
	TorrentLogCategory         Category = 1 << 14
	PeerLogCategory            Category = 1 << 15
	IncomingRequestCategory    Category = 1 << 16
	DHTLogCategory             Category = 1 << 17
	DHTOperationCategory       Category = 1 << 18
	PortMappingLogCategory     Category = 1 << 19
	PickerLogCategory          Category = 1 << 20
	FileProgressCategory       Category = 1 << 21
	PieceProgressCategory      Category = 1 << 22
	UploadCategory             Category = 1 << 23
	BlockProgressCategory      Category = 1 << 24

	AllCategories Category = 0x7fffffff
)

var categoryNames = []struct {
	c    Category
	name string
}{
	{ErrorCategory, "error"},
	{PeerCategory, "peer"},
	{PortMappingCategory, "port_mapping"},
	{StorageCategory, "storage"},
	{TrackerCategory, "tracker"},
	{ConnectCategory, "connect"},
	{StatusCategory, "status"},
	{IPBlockCategory, "ip_block"},
	{PerformanceWarningCategory, "performance_warning"},
	{DHTCategory, "dht"},
	{StatsCategory, "stats"},
	{SessionLogCategory, "session_log"},
	{TorrentLogCategory, "torrent_log"},
	{PeerLogCategory, "peer_log"},
	{IncomingRequestCategory, "incoming_request"},
	{DHTLogCategory, "dht_log"},
	{DHTOperationCategory, "dht_operation"},
	{PortMappingLogCategory, "port_mapping_log"},
	{PickerLogCategory, "picker_log"},
	{FileProgressCategory, "file_progress"},
	{PieceProgressCategory, "piece_progress"},
	{UploadCategory, "upload"},
	{BlockProgressCategory, "block_progress"},
}

func (c Category) String() string {
	if c == AllCategories {
		return "all"
	}
	var names []string
	for _, n := range categoryNames {
		if c&n.c != 0 {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, "|")
}

// Alert is an event posted by the session. Alerts are values of the types in this file.
type Alert interface {
	// Category is the set of categories the alert belongs to.
	Category() Category
	// What is the short name of the alert type.
	What() string
	// Message is a human readable description.
	Message() string
	// Timestamp is the time the alert is posted.
	Timestamp() time.Time

	alert()
}

type alertBase struct {
	time time.Time
}

func newAlertBase() alertBase { return alertBase{time: time.Now()} }

func (a alertBase) Timestamp() time.Time { return a.time }
func (alertBase) alert()                 {}

// TorrentAlert is embedded in alerts about a single torrent.
type TorrentAlert struct {
	alertBase
	Handle   *Torrent
	InfoHash InfoHash
	Name     string
}

func newTorrentAlert(t *torrent) TorrentAlert {
	return TorrentAlert{
		alertBase: newAlertBase(),
		Handle:    t.pub,
		InfoHash:  t.infoHash,
		Name:      t.nameNoLock(),
	}
}

func (a TorrentAlert) prefix() string {
	if a.Name != "" {
		return a.Name
	}
	return a.InfoHash.String()
}

// AddTorrentAlert is posted for every AddTorrent and AsyncAddTorrent call.
type AddTorrentAlert struct {
	alertBase
	Params *AddTorrentParams
	// Handle is nil when Err is set.
	Handle *Torrent
	Err    error
}

func (a *AddTorrentAlert) Category() Category { return StatusCategory }
func (a *AddTorrentAlert) What() string       { return "add_torrent" }
func (a *AddTorrentAlert) Message() string {
	name := a.Params.Name
	if a.Params.TorrentInfo != nil {
		name = a.Params.TorrentInfo.Info.Name
	}
	if a.Err != nil {
		return fmt.Sprintf("failed to add torrent %q: %s", name, a.Err)
	}
	return fmt.Sprintf("added torrent: %s", name)
}

// TorrentRemovedAlert is posted after the engine released a removed torrent.
type TorrentRemovedAlert struct {
	TorrentAlert
}

func (a *TorrentRemovedAlert) Category() Category { return StatusCategory }
func (a *TorrentRemovedAlert) What() string       { return "torrent_removed" }
func (a *TorrentRemovedAlert) Message() string    { return a.prefix() + " removed" }

// TorrentErrorAlert is posted when the torrent stops because of an error.
type TorrentErrorAlert struct {
	TorrentAlert
	Err error
}

func (a *TorrentErrorAlert) Category() Category { return ErrorCategory | StatusCategory }
func (a *TorrentErrorAlert) What() string       { return "torrent_error" }
func (a *TorrentErrorAlert) Message() string    { return a.prefix() + " error: " + a.Err.Error() }

// SessionStatsAlert is the response to PostSessionStats.
type SessionStatsAlert struct {
	alertBase
	// Values is keyed by metric name.
	Values map[string]int64
	// Counters is ordered by metric value index.
	Counters []int64
}

func (a *SessionStatsAlert) Category() Category { return StatsCategory }
func (a *SessionStatsAlert) What() string       { return "session_stats" }
func (a *SessionStatsAlert) Message() string {
	return fmt.Sprintf("session stats (%d values)", len(a.Counters))
}

// StateChangedAlert is posted when the state of a torrent changes.
type StateChangedAlert struct {
	TorrentAlert
	State     State
	PrevState State
}

func (a *StateChangedAlert) Category() Category { return StatusCategory }
func (a *StateChangedAlert) What() string       { return "state_changed" }
func (a *StateChangedAlert) Message() string {
	return fmt.Sprintf("%s: state changed to: %s", a.prefix(), a.State)
}

// TorrentPausedAlert is posted after Pause.
type TorrentPausedAlert struct {
	TorrentAlert
}

func (a *TorrentPausedAlert) Category() Category { return StatusCategory }
func (a *TorrentPausedAlert) What() string       { return "torrent_paused" }
func (a *TorrentPausedAlert) Message() string    { return a.prefix() + " paused" }

// TorrentResumedAlert is posted after Resume.
type TorrentResumedAlert struct {
	TorrentAlert
}

func (a *TorrentResumedAlert) Category() Category { return StatusCategory }
func (a *TorrentResumedAlert) What() string       { return "torrent_resumed" }
func (a *TorrentResumedAlert) Message() string    { return a.prefix() + " resumed" }

// PieceFinishedAlert is posted when a piece passes the hash check.
type PieceFinishedAlert struct {
	TorrentAlert
	Index uint32
}

func (a *PieceFinishedAlert) Category() Category { return PieceProgressCategory }
func (a *PieceFinishedAlert) What() string       { return "piece_finished" }
func (a *PieceFinishedAlert) Message() string {
	return fmt.Sprintf("%s piece: %d finished downloading", a.prefix(), a.Index)
}

// TorrentFinishedAlert is posted when every wanted piece is downloaded.
type TorrentFinishedAlert struct {
	TorrentAlert
}

func (a *TorrentFinishedAlert) Category() Category { return StatusCategory }
func (a *TorrentFinishedAlert) What() string       { return "torrent_finished" }
func (a *TorrentFinishedAlert) Message() string    { return a.prefix() + " torrent finished downloading" }

// HashFailedAlert is posted when a downloaded piece does not match its hash.
type HashFailedAlert struct {
	TorrentAlert
	Index uint32
}

func (a *HashFailedAlert) Category() Category { return StatusCategory }
func (a *HashFailedAlert) What() string       { return "hash_failed" }
func (a *HashFailedAlert) Message() string {
	return fmt.Sprintf("%s hash for piece %d failed", a.prefix(), a.Index)
}

// PeerConnectAlert is posted when a connection to a peer is established.
type PeerConnectAlert struct {
	TorrentAlert
	Addr netip.AddrPort
}

func (a *PeerConnectAlert) Category() Category { return ConnectCategory }
func (a *PeerConnectAlert) What() string       { return "peer_connect" }
func (a *PeerConnectAlert) Message() string {
	return fmt.Sprintf("%s peer (%s) connecting to peer", a.prefix(), a.Addr)
}

// PeerBlockedAlert is posted when a connection to a banned peer is refused.
type PeerBlockedAlert struct {
	TorrentAlert
	Addr   netip.AddrPort
	Reason string
}

func (a *PeerBlockedAlert) Category() Category { return IPBlockCategory }
func (a *PeerBlockedAlert) What() string       { return "peer_blocked" }
func (a *PeerBlockedAlert) Message() string {
	return fmt.Sprintf("%s blocked peer: %s (%s)", a.prefix(), a.Addr, a.Reason)
}

// ScrapeReplyAlert is posted when a tracker responds to a scrape request.
type ScrapeReplyAlert struct {
	TorrentAlert
	URL        string
	Complete   int32
	Incomplete int32
	Downloaded int32
}

func (a *ScrapeReplyAlert) Category() Category { return TrackerCategory }
func (a *ScrapeReplyAlert) What() string       { return "scrape_reply" }
func (a *ScrapeReplyAlert) Message() string {
	return fmt.Sprintf("%s (%s) scrape reply: %d %d", a.prefix(), a.URL, a.Incomplete, a.Complete)
}

// ScrapeFailedAlert is posted when a scrape request fails.
type ScrapeFailedAlert struct {
	TorrentAlert
	URL string
	Err error
}

func (a *ScrapeFailedAlert) Category() Category { return TrackerCategory | ErrorCategory }
func (a *ScrapeFailedAlert) What() string       { return "scrape_failed" }
func (a *ScrapeFailedAlert) Message() string {
	return fmt.Sprintf("%s (%s) scrape failed: %s", a.prefix(), a.URL, a.Err)
}

// SaveResumeDataAlert is the response to SaveResumeData.
type SaveResumeDataAlert struct {
	TorrentAlert
	// Data is the bencoded resume blob.
	Data []byte
}

func (a *SaveResumeDataAlert) Category() Category { return StorageCategory }
func (a *SaveResumeDataAlert) What() string       { return "save_resume_data" }
func (a *SaveResumeDataAlert) Message() string    { return a.prefix() + " resume data generated" }

// SaveResumeDataFailedAlert is the response to SaveResumeData when the blob cannot be generated.
type SaveResumeDataFailedAlert struct {
	TorrentAlert
	Err error
}

func (a *SaveResumeDataFailedAlert) Category() Category { return StorageCategory | ErrorCategory }
func (a *SaveResumeDataFailedAlert) What() string       { return "save_resume_data_failed" }
func (a *SaveResumeDataFailedAlert) Message() string {
	return a.prefix() + " resume data was not generated: " + a.Err.Error()
}

// MetadataReceivedAlert is posted when the info dictionary of a magnet torrent is received.
type MetadataReceivedAlert struct {
	TorrentAlert
}

func (a *MetadataReceivedAlert) Category() Category { return StatusCategory }
func (a *MetadataReceivedAlert) What() string       { return "metadata_received" }
func (a *MetadataReceivedAlert) Message() string    { return a.prefix() + " metadata successfully received" }

// MetadataFailedAlert is posted when received metadata is invalid.
type MetadataFailedAlert struct {
	TorrentAlert
	Err error
}

func (a *MetadataFailedAlert) Category() Category { return ErrorCategory }
func (a *MetadataFailedAlert) What() string       { return "metadata_failed" }
func (a *MetadataFailedAlert) Message() string {
	return a.prefix() + " invalid metadata received: " + a.Err.Error()
}

// DHTReplyAlert is posted when the DHT returns peers for a torrent.
type DHTReplyAlert struct {
	TorrentAlert
	NumPeers int
}

func (a *DHTReplyAlert) Category() Category { return DHTCategory | TrackerCategory }
func (a *DHTReplyAlert) What() string       { return "dht_reply" }
func (a *DHTReplyAlert) Message() string {
	return fmt.Sprintf("%s received DHT peers: %d", a.prefix(), a.NumPeers)
}

// FileErrorAlert is posted when the engine fails to access a file of the torrent.
type FileErrorAlert struct {
	TorrentAlert
	Filename string
	Op       string
	Err      error
}

func (a *FileErrorAlert) Category() Category {
	return ErrorCategory | StorageCategory | StatusCategory
}
func (a *FileErrorAlert) What() string { return "file_error" }
func (a *FileErrorAlert) Message() string {
	return fmt.Sprintf("%s file (%s) error: %s %s", a.prefix(), a.Filename, a.Op, a.Err)
}
