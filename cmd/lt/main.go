package main

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Falcosc/libtorrent/bencode"
	"github.com/Falcosc/libtorrent/internal/jsonutil"
	"github.com/Falcosc/libtorrent/internal/logger"
	"github.com/Falcosc/libtorrent/metainfo"
	"github.com/Falcosc/libtorrent/torrent"
	"github.com/cenkalti/log"
	"github.com/hokaccha/go-prettyjson"
	"github.com/mitchellh/go-homedir"
	"github.com/urfave/cli"
)

var (
	app  = cli.NewApp()
	clog = logger.New("lt")
)

func main() {
	app.Name = "lt"
	app.Usage = "BitTorrent session and torrent file tool"
	app.Version = torrent.Version
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config,c",
			Usage: "read config from `FILE`",
			Value: "~/.libtorrent/config.yaml",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "one of debug, info, notice, warning, error, critical",
			Value: "info",
		},
	}
	app.Before = handleBeforeCommand
	app.Commands = []cli.Command{
		{
			Name:      "info",
			Usage:     "show contents of a torrent file",
			ArgsUsage: "<torrent file>",
			Action:    handleInfo,
		},
		{
			Name:      "bdecode",
			Usage:     "print a bencoded file as JSON",
			ArgsUsage: "<file>",
			Action:    handleBdecode,
		},
		{
			Name:      "resume",
			Usage:     "show contents of a resume data file",
			ArgsUsage: "<resume file>",
			Action:    handleResume,
		},
		{
			Name:      "recreate",
			Usage:     "write a copy of a torrent file with changed trackers or web seeds",
			ArgsUsage: "<input torrent> <output torrent>",
			Flags: []cli.Flag{
				cli.StringSliceFlag{
					Name:  "tracker,t",
					Usage: "add tracker `URL` to a new tier",
				},
				cli.StringSliceFlag{
					Name:  "web-seed,w",
					Usage: "replace web seeds with `URL`",
				},
				cli.StringFlag{
					Name:  "comment",
					Usage: "set comment",
				},
			},
			Action: handleRecreate,
		},
		{
			Name:      "magnet",
			Usage:     "parse a magnet link",
			ArgsUsage: "<magnet uri>",
			Action:    handleMagnet,
		},
		{
			Name:  "session",
			Usage: "manage torrents in the session database",
			Subcommands: []cli.Command{
				{
					Name:      "add",
					Usage:     "add a torrent file or magnet link",
					ArgsUsage: "<torrent file or magnet uri>",
					Flags: []cli.Flag{
						cli.StringFlag{
							Name:  "save-path",
							Usage: "directory to store files in",
						},
						cli.BoolFlag{
							Name:  "paused",
							Usage: "add the torrent in paused state",
						},
					},
					Action: handleSessionAdd,
				},
				{
					Name:   "list",
					Usage:  "list torrents",
					Action: handleSessionList,
				},
				{
					Name:      "remove",
					Usage:     "remove a torrent",
					ArgsUsage: "<info hash>",
					Action:    handleSessionRemove,
				},
				{
					Name:      "export",
					Usage:     "write resume data of a torrent",
					ArgsUsage: "<info hash> <output file>",
					Action:    handleSessionExport,
				},
				{
					Name:   "settings",
					Usage:  "print settings",
					Action: handleSessionSettings,
				},
				{
					Name:   "run",
					Usage:  "keep the session open and print alerts until interrupted",
					Action: handleSessionRun,
				},
			},
		},
	}
	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func handleBeforeCommand(c *cli.Context) error {
	level, err := logger.ParseLevel(c.GlobalString("log-level"))
	if err != nil {
		return err
	}
	logger.SetLevel(level)
	return nil
}

func requireArgs(c *cli.Context, n int) error {
	if c.NArg() < n {
		return fmt.Errorf("%s needs %d argument(s): %s", c.Command.Name, n, c.Command.ArgsUsage)
	}
	return nil
}

func readTorrent(path string) (*metainfo.MetaInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return metainfo.New(f)
}

func printStruct(v any) error {
	b, err := jsonutil.MarshalCompactPretty(v)
	if err != nil {
		return err
	}
	_, _ = os.Stdout.Write(b)
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

type torrentInfo struct {
	Name         string
	InfoHash     string
	Private      bool
	PieceLength  uint32
	NumPieces    uint32
	TotalLength  int64
	Files        []string
	Trackers     [][]string
	WebSeeds     []string
	Comment      string
	CreatedBy    string
	CreationDate string
}

func handleInfo(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	mi, err := readTorrent(c.Args().Get(0))
	if err != nil {
		return err
	}
	ih := mi.InfoHash()
	out := torrentInfo{
		Name:         mi.Info.Name,
		InfoHash:     hex.EncodeToString(ih[:]),
		Private:      mi.Info.Private,
		PieceLength:  mi.Info.PieceLength,
		NumPieces:    mi.Info.NumPieces,
		TotalLength:  mi.Info.TotalLength,
		Trackers:     mi.AnnounceList,
		Comment:      mi.Comment,
		CreatedBy:    mi.CreatedBy,
		CreationDate: formatTime(mi.CreationDate),
	}
	for i := 0; i < mi.NumFiles(); i++ {
		out.Files = append(out.Files, mi.Info.FilePath(i))
	}
	for _, ws := range mi.WebSeeds() {
		out.WebSeeds = append(out.WebSeeds, ws.Type.String()+" "+ws.URL)
	}
	return printStruct(out)
}

func handleBdecode(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	b, err := os.ReadFile(c.Args().Get(0))
	if err != nil {
		return err
	}
	v, err := bencode.Decode(b)
	if err != nil {
		return err
	}
	out, err := prettyjson.Marshal(bencode.Interface(v))
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

type resumeInfo struct {
	InfoHash        string
	Name            string
	SavePath        string
	HasMetadata     bool
	Paused          bool
	Pieces          string
	FilePriorities  []int
	Trackers        [][]string
	Peers           int
	BannedPeers     int
	TotalUploaded   int64
	TotalDownloaded int64
	ActiveTime      string
	SeedingTime     string
	AddedTime       string
	CompletedTime   string
}

func handleResume(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	b, err := os.ReadFile(c.Args().Get(0))
	if err != nil {
		return err
	}
	p, err := torrent.ReadResumeData(b)
	if err != nil {
		return err
	}
	out := resumeInfo{
		InfoHash:        p.InfoHash.String(),
		Name:            p.Name,
		SavePath:        p.SavePath,
		HasMetadata:     p.TorrentInfo != nil,
		Paused:          p.Paused,
		Pieces:          formatPieces(p.HavePieces),
		FilePriorities:  p.FilePriorities,
		Trackers:        p.Trackers,
		Peers:           len(p.Peers),
		BannedPeers:     len(p.BannedPeers),
		TotalUploaded:   p.TotalUploaded,
		TotalDownloaded: p.TotalDownloaded,
		ActiveTime:      p.ActiveTime.String(),
		SeedingTime:     p.SeedingTime.String(),
		AddedTime:       formatTime(p.AddedTime),
		CompletedTime:   formatTime(p.CompletedTime),
	}
	return printStruct(out)
}

func formatPieces(pieces []bool) string {
	var buf bytes.Buffer
	for _, ok := range pieces {
		if ok {
			buf.WriteByte('1')
		} else {
			buf.WriteByte('0')
		}
	}
	return buf.String()
}

func handleRecreate(c *cli.Context) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	mi, err := readTorrent(c.Args().Get(0))
	if err != nil {
		return err
	}
	b := metainfo.NewBuilder(mi)
	for _, u := range c.StringSlice("tracker") {
		b.AddTracker(u, len(mi.AnnounceList))
	}
	if seeds := c.StringSlice("web-seed"); len(seeds) > 0 {
		ws := make([]metainfo.WebSeed, 0, len(seeds))
		for _, u := range seeds {
			ws = append(ws, metainfo.WebSeed{URL: u, Type: metainfo.URLSeed})
		}
		b.SetWebSeeds(ws)
	}
	if c.IsSet("comment") {
		b.SetComment(c.String("comment"))
	}
	out, err := b.Freeze()
	if err != nil {
		return err
	}
	data, err := out.Bytes()
	if err != nil {
		return err
	}
	return os.WriteFile(c.Args().Get(1), data, 0640)
}

type magnetInfo struct {
	InfoHash       string
	Name           string
	Trackers       [][]string
	WebSeeds       []string
	Peers          []string
	FilePriorities []int
}

func handleMagnet(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	p, err := torrent.ParseMagnetURI(c.Args().Get(0))
	if err != nil {
		return err
	}
	out := magnetInfo{
		InfoHash:       p.InfoHash.String(),
		Name:           p.Name,
		Trackers:       p.Trackers,
		WebSeeds:       p.URLSeeds,
		FilePriorities: p.FilePriorities,
	}
	for _, addr := range p.Peers {
		out.Peers = append(out.Peers, addr.String())
	}
	return printStruct(out)
}

func openSession(c *cli.Context) (*torrent.Session, error) {
	path, err := homedir.Expand(c.GlobalString("config"))
	if err != nil {
		return nil, err
	}
	cfg, err := torrent.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if cfg.Database == "" {
		return nil, errors.New("database must be set in config")
	}
	return torrent.NewSession(*cfg)
}

func findTorrent(s *torrent.Session, arg string) (*torrent.Torrent, error) {
	ih, err := torrent.ParseInfoHash(arg)
	if err != nil {
		return nil, err
	}
	t := s.FindTorrent(ih)
	if t == nil {
		return nil, fmt.Errorf("torrent not found: %s", ih)
	}
	return t, nil
}

func handleSessionAdd(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	s, err := openSession(c)
	if err != nil {
		return err
	}
	defer s.Close()

	arg := c.Args().Get(0)
	var p *torrent.AddTorrentParams
	if strings.HasPrefix(arg, "magnet:") {
		p, err = s.ParseMagnetURI(arg)
		if err != nil {
			return err
		}
	} else {
		mi, err := readTorrent(arg)
		if err != nil {
			return err
		}
		p = &torrent.AddTorrentParams{TorrentInfo: mi}
	}
	p.SavePath = c.String("save-path")
	p.Paused = c.Bool("paused")
	t, err := s.AddTorrent(p)
	if err != nil {
		return err
	}
	clog.Infof("added %s %s", t.InfoHash(), t.Name())
	return nil
}

type torrentStatus struct {
	InfoHash          string
	Name              string
	State             string
	Paused            bool
	Error             string
	Progress          float64
	DistributedCopies float64
	TotalUploaded     int64
	TotalDownloaded   int64
	KnownPeers        int
	SavePath          string
	AddedTime         string
	CompletedTime     string
	ActiveDuration    string
}

func handleSessionList(c *cli.Context) error {
	s, err := openSession(c)
	if err != nil {
		return err
	}
	defer s.Close()

	for _, t := range s.Torrents() {
		st := t.Status()
		out := torrentStatus{
			InfoHash:          st.InfoHash.String(),
			Name:              st.Name,
			State:             st.State.String(),
			Paused:            st.Paused,
			Progress:          st.Progress,
			DistributedCopies: st.DistributedCopies,
			TotalUploaded:     st.TotalUploaded,
			TotalDownloaded:   st.TotalDownloaded,
			KnownPeers:        st.NumKnownPeers,
			SavePath:          st.SavePath,
			AddedTime:         formatTime(st.AddedTime),
			CompletedTime:     formatTime(st.CompletedTime),
			ActiveDuration:    st.ActiveDuration.String(),
		}
		if st.Error != nil {
			out.Error = st.Error.Error()
		}
		if err = printStruct(out); err != nil {
			return err
		}
		fmt.Println()
	}
	return nil
}

func handleSessionRemove(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	s, err := openSession(c)
	if err != nil {
		return err
	}
	defer s.Close()

	t, err := findTorrent(s, c.Args().Get(0))
	if err != nil {
		return err
	}
	if err = s.RemoveTorrent(t); err != nil {
		return err
	}
	// wait for resume data to be deleted before closing the database
	for {
		a := s.WaitForAlert(time.Second)
		if a == nil {
			return errors.New("timeout while removing torrent")
		}
		for _, a := range s.PopAlerts() {
			if _, ok := a.(*torrent.TorrentRemovedAlert); ok {
				return nil
			}
		}
	}
}

func handleSessionExport(c *cli.Context) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	s, err := openSession(c)
	if err != nil {
		return err
	}
	defer s.Close()

	t, err := findTorrent(s, c.Args().Get(0))
	if err != nil {
		return err
	}
	b, err := t.ResumeData()
	if err != nil {
		return err
	}
	return os.WriteFile(c.Args().Get(1), b, 0640)
}

func handleSessionSettings(c *cli.Context) error {
	s, err := openSession(c)
	if err != nil {
		return err
	}
	defer s.Close()

	b, err := prettyjson.Marshal(s.GetSettings())
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func handleSessionRun(c *cli.Context) error {
	s, err := openSession(c)
	if err != nil {
		return err
	}
	defer s.Close()

	sigC := make(chan os.Signal, 1)
	signal.Notify(sigC, syscall.SIGINT, syscall.SIGTERM)
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	alertC := make(chan struct{}, 1)
	s.SetAlertNotify(func() {
		select {
		case alertC <- struct{}{}:
		default:
		}
	})
	for {
		select {
		case <-alertC:
			for _, a := range s.PopAlerts() {
				fmt.Printf("%s %s: %s\n", a.Timestamp().Format(time.RFC3339), a.What(), a.Message())
			}
		case <-ticker.C:
			s.PostSessionStats()
		case <-sigC:
			clog.Info("shutting down")
			return nil
		}
	}
}
