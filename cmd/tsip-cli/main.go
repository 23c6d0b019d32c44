// tsip-cli is a debug console for Thunderbolt receivers: send raw bytes
// to a live port, or replay frame payloads through the decoder offline.
//
// Commands, separated by whitespace:
//	t<hex>  transmit raw bytes to the port (pre-framed, DLE stuffing is
//	        caller's job)
//	d<hex>  run one unescaped frame payload through the decoder
//	f<hex>  feed raw wire bytes through the framer state machine
//	s       print status snapshot as JSON
//	p<ms>   pause
package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	prompt "github.com/c-bata/go-prompt"
	"github.com/juju/errors"

	"github.com/gpsdo/thunderbolt/hardware/serial"
	"github.com/gpsdo/thunderbolt/hardware/tsip"
	"github.com/gpsdo/thunderbolt/helpers/cli"
	"github.com/gpsdo/thunderbolt/log2"
)

var suggests = []prompt.Suggest{
	{Text: "t", Description: "t<hex> transmit raw bytes to port"},
	{Text: "d", Description: "d<hex> decode one frame payload"},
	{Text: "f", Description: "f<hex> feed wire bytes through framer"},
	{Text: "s", Description: "print status JSON"},
	{Text: "p", Description: "p<ms> pause"},
}

func main() {
	flagDevice := flag.String("device", "", "serial device path, empty for offline decode")
	flagBaud := flag.Int("baud", 9600, "")
	flag.Parse()

	logger := log2.NewStderr(log2.LDebug)
	logger.SetFlags(log2.LInteractiveFlags)

	var port serial.Porter
	if *flagDevice == "" {
		logger.Infof("no -device, offline mode")
		port = serial.NewMockPort()
		_ = port.Open("mock", *flagBaud)
	} else {
		port = serial.NewFilePort(logger)
		if err := port.Open(*flagDevice, *flagBaud); err != nil {
			logger.Fatal(errors.ErrorStack(err))
		}
	}
	state := tsip.NewReceiverState()
	dec := tsip.NewDecoder(logger, state)
	framer := tsip.NewFramer(logger, port, dec, 0)

	exec := func(line string) {
		for _, word := range strings.Fields(line) {
			if err := execWord(port, state, dec, framer, word); err != nil {
				logger.Errorf("word=%s err=%v", word, err)
				break
			}
		}
	}
	completer := func(d prompt.Document) []prompt.Suggest {
		return prompt.FilterHasPrefix(suggests, d.GetWordBeforeCursor(), true)
	}
	cli.MainLoop("tsip", exec, completer)
}

func execWord(port serial.Porter, state *tsip.ReceiverState, dec *tsip.Decoder, framer *tsip.Framer, word string) error {
	switch word[0] {
	case 't':
		bs, err := hex.DecodeString(word[1:])
		if err != nil {
			return errors.Trace(err)
		}
		_, err = port.Write(bs)
		return errors.Trace(err)
	case 'd':
		bs, err := hex.DecodeString(word[1:])
		if err != nil {
			return errors.Trace(err)
		}
		return dec.Decode(bs)
	case 'f':
		bs, err := hex.DecodeString(word[1:])
		if err != nil {
			return errors.Trace(err)
		}
		for _, b := range bs {
			framer.Feed(b)
		}
		return nil
	case 's':
		b, err := json.MarshalIndent(state.Status(), "", "  ")
		if err != nil {
			return errors.Trace(err)
		}
		fmt.Fprintln(os.Stdout, string(b))
		return nil
	case 'p':
		ms, err := strconv.ParseUint(word[1:], 10, 32)
		if err != nil {
			return errors.Trace(err)
		}
		time.Sleep(time.Duration(ms) * time.Millisecond)
		return nil
	}
	return errors.Errorf("unknown command")
}
