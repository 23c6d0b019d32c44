// Package state holds runtime configuration and lazily constructed
// hardware handles, passed explicitly instead of living in globals.
package state

import (
	"io"
	"io/ioutil"
	"os"
	"sync"

	"github.com/hashicorp/hcl"
	"github.com/juju/errors"

	"github.com/gpsdo/thunderbolt/hardware/led"
	"github.com/gpsdo/thunderbolt/hardware/serial"
	"github.com/gpsdo/thunderbolt/hardware/tsip"
	tele_config "github.com/gpsdo/thunderbolt/head/tele/config"
	"github.com/gpsdo/thunderbolt/helpers"
	"github.com/gpsdo/thunderbolt/log2"
)

type Config struct {
	g Global

	Hardware struct {
		Serial struct {
			Device string `hcl:"device"`
			Baud   int    `hcl:"baud"`
		} `hcl:"serial"`
		Led struct {
			Enable bool       `hcl:"enable"`
			Pinmap led.PinMap `hcl:"pinmap"`
		} `hcl:"led"`
		Tsip struct {
			LogEnable bool `hcl:"log_enable"`
			PollMs    int  `hcl:"poll_ms"`
			StaleMs   int  `hcl:"stale_ms"`
			MonitorMs int  `hcl:"monitor_ms"`
		} `hcl:"tsip"`
	} `hcl:"hardware"`

	Tele tele_config.Config `hcl:"tele"`
}

type Global struct {
	lk sync.Mutex

	Hardware struct {
		Serial struct {
			Porter serial.Porter
		}
		Led struct {
			Indicator led.Indicator
		}
	}
	Device *tsip.Device
	Log    *log2.Log
}

func (c *Config) Global() *Global { return &c.g }

func (c *Config) Porter() (serial.Porter, error) {
	c.g.lk.Lock()
	defer c.g.lk.Unlock()
	err := c.requirePorter()
	return c.g.Hardware.Serial.Porter, err
}

func (c *Config) Indicator() (led.Indicator, error) {
	c.g.lk.Lock()
	defer c.g.lk.Unlock()
	err := c.requireIndicator()
	return c.g.Hardware.Led.Indicator, err
}

func (c *Config) Device() (*tsip.Device, error) {
	c.g.lk.Lock()
	defer c.g.lk.Unlock()
	err := c.requireDevice()
	return c.g.Device, err
}

func (c *Config) requirePorter() error {
	if c.g.Hardware.Serial.Porter != nil {
		return nil
	}
	port := serial.NewFilePort(c.g.Log)
	if err := port.Open(c.Hardware.Serial.Device, c.Hardware.Serial.Baud); err != nil {
		return errors.Annotatef(err, "config: serial=%+v", c.Hardware.Serial)
	}
	c.g.Hardware.Serial.Porter = port
	return nil
}

func (c *Config) requireIndicator() error {
	if !c.Hardware.Led.Enable || c.g.Hardware.Led.Indicator != nil {
		return nil
	}
	ind, err := led.NewGpioIndicator(c.Hardware.Led.Pinmap)
	if err != nil {
		return errors.Annotatef(err, "config: led=%+v", c.Hardware.Led)
	}
	c.g.Hardware.Led.Indicator = ind
	return nil
}

func (c *Config) requireDevice() error {
	if c.g.Device != nil {
		return nil
	}
	if err := c.requirePorter(); err != nil {
		return err
	}
	if err := c.requireIndicator(); err != nil {
		return err
	}
	tsipLog := c.g.Log.Clone(log2.LInfo)
	if c.Hardware.Tsip.LogEnable {
		tsipLog.SetLevel(log2.LDebug)
	}
	c.g.Device = tsip.NewDevice(tsipLog,
		c.g.Hardware.Serial.Porter,
		c.g.Hardware.Led.Indicator,
		tsip.DeviceConfig{
			PollDelay:      helpers.IntMillisecondDefault(c.Hardware.Tsip.PollMs, tsip.DefaultPollDelay),
			StaleThreshold: helpers.IntMillisecondDefault(c.Hardware.Tsip.StaleMs, tsip.DefaultStaleThreshold),
			MonitorPeriod:  helpers.IntMillisecondDefault(c.Hardware.Tsip.MonitorMs, tsip.DefaultMonitorPeriod),
		})
	return nil
}

func ReadConfig(r io.Reader, log *log2.Log) (*Config, error) {
	b, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, errors.Trace(err)
	}
	c := new(Config)
	if err = hcl.Unmarshal(b, c); err != nil {
		return nil, errors.Trace(err)
	}
	c.g.Log = log

	if c.Hardware.Serial.Device == "" {
		return nil, errors.Errorf("config: hardware.serial.device is not set")
	}
	if c.Hardware.Serial.Baud == 0 {
		c.Hardware.Serial.Baud = 9600
	}
	return c, nil
}

func ReadConfigFile(path string, log *log2.Log) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer f.Close()
	return ReadConfig(f, log)
}

func MustReadConfigFile(path string, log *log2.Log) *Config {
	c, err := ReadConfigFile(path, log)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	return c
}
