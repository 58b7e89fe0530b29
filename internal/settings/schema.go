package settings

import "fmt"

// Type of a setting value.
type Type int

// Setting types.
const (
	String Type = iota
	Int
	Bool
)

func (t Type) String() string {
	switch t {
	case String:
		return "string"
	case Int:
		return "int"
	case Bool:
		return "bool"
	default:
		return "unknown"
	}
}

// Setting describes one entry of the schema.
type Setting struct {
	Name    string
	Type    Type
	Default any
	// Validate is called with a value of the right type. Nil accepts every value.
	Validate func(any) error
}

// Alert category bits used by the default alert mask.
const (
	categoryError   = 1 << 0
	categoryStorage = 1 << 3
	categoryStatus  = 1 << 6
)

func nonNegative(v any) error {
	if v.(int64) < 0 {
		return fmt.Errorf("must not be negative: %d", v)
	}
	return nil
}

func positive(v any) error {
	if v.(int64) <= 0 {
		return fmt.Errorf("must be positive: %d", v)
	}
	return nil
}

func between(min, max int64) func(any) error {
	return func(v any) error {
		if i := v.(int64); i < min || i > max {
			return fmt.Errorf("must be between %d and %d: %d", min, max, i)
		}
		return nil
	}
}

func str(name, def string) Setting { return Setting{Name: name, Type: String, Default: def} }
func boolean(name string, def bool) Setting { return Setting{Name: name, Type: Bool, Default: def} }
func integer(name string, def int64, validate func(any) error) Setting {
	return Setting{Name: name, Type: Int, Default: def, Validate: validate}
}

// schema is indexed by setting index. New settings are appended to keep indexes stable.
var schema = []Setting{
	str("user_agent", "libtorrent/"+Version),
	str("announce_ip", ""),
	str("handshake_client_version", ""),
	str("outgoing_interfaces", ""),
	str("listen_interfaces", "0.0.0.0:6881,[::]:6881"),
	str("proxy_hostname", ""),
	str("proxy_username", ""),
	str("proxy_password", ""),
	str("peer_fingerprint", "-LT2000-"),
	str("dht_bootstrap_nodes", "dht.libtorrent.org:25401"),

	boolean("allow_multiple_connections_per_ip", false),
	boolean("send_redundant_have", true),
	boolean("use_dht_as_fallback", false),
	boolean("upnp_ignore_nonrouters", false),
	boolean("use_parole_mode", true),
	boolean("auto_manage_prefer_seeds", false),
	boolean("dont_count_slow_torrents", true),
	boolean("close_redundant_connections", true),
	boolean("prioritize_partial_pieces", false),
	boolean("rate_limit_ip_overhead", true),
	boolean("announce_to_all_tiers", false),
	boolean("announce_to_all_trackers", false),
	boolean("prefer_udp_trackers", true),
	boolean("disable_hash_checks", false),
	boolean("strict_end_game_mode", true),
	boolean("enable_outgoing_utp", true),
	boolean("enable_incoming_utp", true),
	boolean("enable_outgoing_tcp", true),
	boolean("enable_incoming_tcp", true),
	boolean("no_recheck_incomplete_resume", false),
	boolean("anonymous_mode", false),
	boolean("incoming_starts_queued_torrents", false),
	boolean("report_true_downloaded", false),
	boolean("strict_super_seeding", false),
	boolean("enable_upnp", true),
	boolean("enable_natpmp", true),
	boolean("enable_lsd", true),
	boolean("enable_dht", true),
	boolean("prefer_rc4", false),
	boolean("proxy_hostnames", true),
	boolean("proxy_peer_connections", true),
	boolean("auto_sequential", true),
	boolean("proxy_tracker_connections", true),
	boolean("enable_ip_notifier", true),
	boolean("validate_https_trackers", true),

	integer("tracker_completion_timeout", 30, nonNegative),
	integer("tracker_receive_timeout", 10, nonNegative),
	integer("stop_tracker_timeout", 5, nonNegative),
	integer("tracker_maximum_response_length", 1024*1024, positive),
	integer("piece_timeout", 20, nonNegative),
	integer("request_timeout", 60, nonNegative),
	integer("request_queue_time", 3, nonNegative),
	integer("max_allowed_in_request_queue", 2000, positive),
	integer("max_out_request_queue", 500, positive),
	integer("whole_pieces_threshold", 20, nonNegative),
	integer("peer_timeout", 120, nonNegative),
	integer("urlseed_timeout", 20, nonNegative),
	integer("urlseed_pipeline_size", 5, positive),
	integer("urlseed_wait_retry", 30, nonNegative),
	integer("file_pool_size", 40, positive),
	integer("max_failcount", 3, positive),
	integer("min_reconnect_time", 60, nonNegative),
	integer("peer_connect_timeout", 15, nonNegative),
	integer("connection_speed", 30, nonNegative),
	integer("inactivity_timeout", 600, nonNegative),
	integer("unchoke_interval", 15, positive),
	integer("optimistic_unchoke_interval", 30, positive),
	integer("num_want", 200, nonNegative),
	integer("initial_picker_threshold", 4, nonNegative),
	integer("allowed_fast_set_size", 5, nonNegative),
	integer("suggest_mode", 0, between(0, 1)),
	integer("max_queued_disk_bytes", 1024*1024, nonNegative),
	integer("handshake_timeout", 10, nonNegative),
	integer("send_buffer_low_watermark", 10*1024, nonNegative),
	integer("send_buffer_watermark", 500*1024, nonNegative),
	integer("send_buffer_watermark_factor", 50, nonNegative),
	integer("choking_algorithm", 0, between(0, 3)),
	integer("seed_choking_algorithm", 0, between(0, 2)),
	integer("disk_io_write_mode", 0, between(0, 2)),
	integer("disk_io_read_mode", 0, between(0, 2)),
	integer("outgoing_port", 0, between(0, 65535)),
	integer("num_outgoing_ports", 0, nonNegative),
	integer("peer_tos", 0x04, between(0, 255)),
	integer("active_downloads", 3, nil),
	integer("active_seeds", 5, nil),
	integer("active_checking", 1, nil),
	integer("active_dht_limit", 88, nil),
	integer("active_tracker_limit", 1600, nil),
	integer("active_lsd_limit", 60, nil),
	integer("active_limit", 500, nil),
	integer("auto_manage_interval", 30, positive),
	integer("seed_time_limit", 24*60*60, nonNegative),
	integer("auto_scrape_interval", 1800, nonNegative),
	integer("auto_scrape_min_interval", 300, nonNegative),
	integer("max_peers_reply", 100, nonNegative),
	integer("max_rejects", 50, nonNegative),
	integer("recv_socket_buffer_size", 0, nonNegative),
	integer("send_socket_buffer_size", 0, nonNegative),
	integer("max_peer_recv_buffer_size", 2*1024*1024, positive),
	integer("optimistic_disk_retry", 10*60, nonNegative),
	integer("max_suggest_pieces", 16, nonNegative),
	integer("local_service_announce_interval", 5*60, positive),
	integer("dht_announce_interval", 15*60, positive),
	integer("udp_tracker_token_expiry", 60, nonNegative),
	integer("num_optimistic_unchoke_slots", 0, nonNegative),
	integer("max_pex_peers", 50, nonNegative),
	integer("tick_interval", 500, positive),
	integer("share_mode_target", 3, nonNegative),
	integer("upload_rate_limit", 0, nonNegative),
	integer("download_rate_limit", 0, nonNegative),
	integer("dht_upload_rate_limit", 8000, nonNegative),
	integer("unchoke_slots_limit", 8, nil),
	integer("connections_limit", 200, positive),
	integer("connections_slack", 10, nonNegative),
	integer("utp_target_delay", 100, nonNegative),
	integer("utp_gain_factor", 3000, nonNegative),
	integer("utp_syn_resends", 2, nonNegative),
	integer("utp_num_resends", 3, nonNegative),
	integer("mixed_mode_algorithm", 0, between(0, 1)),
	integer("listen_queue_size", 5, positive),
	integer("torrent_connect_boost", 30, nonNegative),
	integer("alert_queue_size", 1000, positive),
	integer("max_metadata_size", 3*1024*1024, positive),
	integer("hashing_threads", 1, positive),
	integer("checking_mem_usage", 256, positive),
	integer("predictive_piece_announce", 0, nonNegative),
	integer("aio_threads", 10, positive),
	integer("tracker_backoff", 250, nonNegative),
	integer("share_ratio_limit", 200, nonNegative),
	integer("seed_time_ratio_limit", 700, nonNegative),
	integer("peer_turnover", 4, between(0, 100)),
	integer("peer_turnover_cutoff", 90, between(0, 100)),
	integer("peer_turnover_interval", 300, nonNegative),
	integer("connect_seed_every_n_download", 10, nonNegative),
	integer("max_http_recv_buffer_size", 4*1024*1024, positive),
	integer("max_retry_port_bind", 10, nonNegative),
	integer("alert_mask", categoryError|categoryStorage|categoryStatus, nil),
	integer("out_enc_policy", 1, between(0, 2)),
	integer("in_enc_policy", 1, between(0, 2)),
	integer("allowed_enc_level", 3, between(1, 3)),
	integer("inactive_down_rate", 2048, nonNegative),
	integer("inactive_up_rate", 2048, nonNegative),
	integer("proxy_type", 0, between(0, 5)),
	integer("proxy_port", 0, between(0, 65535)),
	integer("i2p_port", 0, between(0, 65535)),
	integer("urlseed_max_request_bytes", 16*1024*1024, positive),
	integer("web_seed_name_lookup_retry", 1800, nonNegative),
	integer("close_file_interval", 0, nonNegative),
	integer("utp_cwnd_reduce_timer", 100, nonNegative),
	integer("max_web_seed_connections", 3, positive),
	integer("resolver_cache_timeout", 1200, nonNegative),
	integer("send_not_sent_low_watermark", 16384, nonNegative),
	integer("rate_choker_initial_threshold", 1024, nonNegative),
	integer("upnp_lease_duration", 3600, nonNegative),
	integer("max_concurrent_http_announces", 50, positive),
	integer("dht_max_peers_reply", 100, nonNegative),
	integer("dht_search_branching", 5, positive),
	integer("dht_max_fail_count", 20, positive),
	integer("dht_max_torrents", 2000, positive),
	integer("dht_max_dht_items", 700, positive),
	integer("dht_max_peers", 500, positive),
	integer("dht_max_torrent_search_reply", 20, positive),
	integer("dht_block_timeout", 5*60, nonNegative),
	integer("dht_block_ratelimit", 5, nonNegative),
	integer("dht_item_lifetime", 0, nonNegative),
	integer("dht_sample_infohashes_interval", 21600, nonNegative),
	integer("dht_max_infohashes_sample_count", 20, nonNegative),
	integer("cache_size_volatile", 256, nonNegative),
	integer("max_piece_count", 0x200000, positive),
	integer("metadata_token_limit", 2500000, positive),
	integer("disk_write_mode", 0, between(0, 2)),
	integer("mmap_file_size_cutoff", 40, nonNegative),
	integer("i2p_inbound_quantity", 3, between(1, 16)),
	integer("i2p_outbound_quantity", 3, between(1, 16)),
	integer("i2p_inbound_length", 3, between(0, 7)),
	integer("i2p_outbound_length", 3, between(0, 7)),
}

var byName = make(map[string]int, len(schema))

func init() {
	for i, s := range schema {
		if _, ok := byName[s.Name]; ok {
			panic("duplicate setting: " + s.Name)
		}
		byName[s.Name] = i
	}
}

// Index returns the index of the setting with name.
func Index(name string) (int, bool) {
	i, ok := byName[name]
	return i, ok
}

// Name returns the name of the setting at index or an empty string.
func Name(index int) string {
	if index < 0 || index >= len(schema) {
		return ""
	}
	return schema[index].Name
}

// Schema returns all known settings in index order.
func Schema() []Setting {
	return append([]Setting(nil), schema...)
}
