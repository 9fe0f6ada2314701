package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/Gurux/gxcommon-go"
	"github.com/Gurux/gxrpc-go"
	"github.com/Gurux/gxserial-go"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"
)

type config struct {
	Port      string
	BaudRate  int
	DataBits  int
	Parity    string
	MaxTopics int

	Topic     uint8
	Message   string
	Ack       bool
	TimeoutMs int
	ListenMs  int
}

var (
	configPath = flag.String("c", "config.toml", "Configuration file")
	t          = flag.String("t", "", "Trace level.")
	lang       = flag.String("lang", "", "Used language.")
	verbose    = flag.Bool("v", false, "Log frame events")
)

func main() {
	flag.Parse()

	cfg := config{BaudRate: 115200, DataBits: 8, Parity: "None", MaxTopics: 10, TimeoutMs: 200, ListenMs: 5000}
	if _, err := toml.DecodeFile(*configPath, &cfg); err != nil {
		fmt.Fprintln(os.Stderr, "error reading configuration:", err)
		return
	}
	if cfg.Port == "" {
		fmt.Fprintln(os.Stderr, "no serial port configured")
		return
	}

	parity, err := gxcommon.ParityParse(cfg.Parity)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error parsing parity:", err)
		return
	}

	media := gxserial.NewGXSerial(cfg.Port, gxcommon.BaudRate(cfg.BaudRate), cfg.DataBits, gxcommon.StopBitsOne, parity)
	media.SetOnError(func(m gxcommon.IGXMedia, err error) {
		fmt.Fprintln(os.Stderr, "error:", err)
	})
	media.SetOnMediaStateChange(func(m gxcommon.IGXMedia, e gxcommon.MediaStateEventArgs) {
		fmt.Printf("Media state change : %s\n", e.State().String())
	})

	rpc := gxrpc.NewGXRpc(gxrpc.NewMediaTransport(media), cfg.MaxTopics)
	if *lang != "" {
		tag, err := language.Parse(*lang)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error parsing language:", err)
			return
		}
		media.Localize(tag)
		rpc.Localize(tag)
	}
	if *t != "" {
		tl, err := gxcommon.TraceLevelParse(*t)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return
		}
		if err = rpc.SetTrace(tl); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return
		}
		rpc.SetOnTrace(func(m gxcommon.IGXMedia, e gxcommon.TraceEventArgs) {
			fmt.Printf("Trace: %s\n", e.String())
		})
	}
	if *verbose {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		rpc.SetLogger(zerolog.New(output).With().Timestamp().Str("app", "gxrpc-example").Logger())
	}

	rpc.Subscribe(cfg.Topic, func(topicID uint8, data []byte, status gxrpc.Status) gxrpc.Status {
		fmt.Printf("Topic %d received % X (%s)\n", topicID, data, status)
		return status
	})

	if err = media.Open(); err != nil {
		fmt.Fprintln(os.Stderr, "error returned:", err)
		ret, err := gxserial.GetPortNames()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Failed to get available serial ports: ", err)
			return
		}
		fmt.Fprintln(os.Stderr, "Available serial ports: "+strings.Join(ret, ","))
		return
	}
	defer func() {
		if err := media.Close(); err != nil {
			fmt.Fprintln(os.Stderr, "close failed:", err)
		}
	}()

	if cfg.Message != "" {
		status, err := rpc.Publish(cfg.Topic, []byte(cfg.Message), cfg.Ack, time.Duration(cfg.TimeoutMs)*time.Millisecond)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return
		}
		fmt.Printf("Publish status: %s\n", status)
	}

	//Service incoming frames for a while before exiting.
	deadline := time.Now().Add(time.Duration(cfg.ListenMs) * time.Millisecond)
	for time.Now().Before(deadline) {
		rpc.Loop()
		time.Sleep(time.Millisecond)
	}

	stats := rpc.Statistics()
	fmt.Printf("Frames sent %d received %d, CRC errors %d, dropped %d\n",
		stats.FramesSent, stats.FramesReceived, stats.CRCErrors, stats.DroppedFrames)
	fmt.Printf("Exit\n")
}
