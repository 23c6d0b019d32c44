// Thunderbolt GPSDO telemetry daemon: decodes TSIP reports from the
// serial port, keeps a live receiver status and publishes it over MQTT.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"
	"github.com/temoto/alive/v2"

	"github.com/gpsdo/thunderbolt/head/state"
	"github.com/gpsdo/thunderbolt/head/tele"
	"github.com/gpsdo/thunderbolt/log2"
)

var BuildVersion string = "unknown" // -ldflags "-X main.BuildVersion=`git describe`"

func main() {
	flagConfig := flag.String("config", "thunderbolt.hcl", "")
	flagVersion := flag.Bool("version", false, "print build version and exit")
	flag.Parse()

	if *flagVersion {
		log.Printf("thunderbolt %s", BuildVersion)
		return
	}

	logger := log2.NewStderr(log2.LInfo)
	if sdnotify("STATUS=starting") {
		// under systemd journal, timestamps are redundant
		logger.SetFlags(log2.LServiceFlags)
	} else {
		logger.SetFlags(log2.LInteractiveFlags)
	}
	logger.Infof("thunderbolt version=%s", BuildVersion)

	config := state.MustReadConfigFile(*flagConfig, logger)

	device, err := config.Device()
	if err != nil {
		logger.Fatal(errors.ErrorStack(err))
	}

	a := alive.NewAlive()
	if err = device.Run(a); err != nil {
		logger.Fatal(errors.ErrorStack(err))
	}

	t := new(tele.Tele)
	if err = t.Init(logger.Clone(log2.LInfo), config.Tele, device.Status); err != nil {
		logger.Fatal(errors.ErrorStack(err))
	}
	if a.Add(1) {
		go t.Loop(a)
	}

	sdnotify(daemon.SdNotifyReady)
	logger.Infof("init complete, running")

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigch:
		logger.Infof("signal=%v", sig)
	case <-a.StopChan():
	}
	sdnotify(daemon.SdNotifyStopping)
	a.Stop()
	a.Wait()
	_ = device.Close()
	logger.Infof("stopped")
}

func sdnotify(s string) bool {
	ok, err := daemon.SdNotify(false, s)
	if err != nil {
		log.Fatal("sdnotify: ", errors.ErrorStack(err))
	}
	return ok
}
