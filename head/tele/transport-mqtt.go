package tele

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io/ioutil"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/juju/errors"

	tele_config "github.com/gpsdo/thunderbolt/head/tele/config"
	"github.com/gpsdo/thunderbolt/helpers"
	"github.com/gpsdo/thunderbolt/log2"
)

type transportMqtt struct {
	log  *log2.Log
	m    mqtt.Client
	mopt *mqtt.ClientOptions

	networkTimeout time.Duration
	topicState     string
}

func (self *transportMqtt) Init(log *log2.Log, teleConfig tele_config.Config, willPayload []byte) error {
	self.log = log
	mqttLog := log.Clone(log2.LDebug)
	mqtt.CRITICAL = mqttLog
	mqtt.ERROR = mqttLog
	mqtt.WARN = mqttLog
	if teleConfig.MqttLogDebug {
		mqtt.DEBUG = mqttLog
	}

	clientId := teleConfig.ClientId
	if clientId == "" {
		return errors.Errorf("tele: client_id is not set")
	}
	credFun := func() (string, string) {
		return clientId, teleConfig.MqttPassword
	}
	self.topicState = fmt.Sprintf("%s/w/1s", clientId)

	self.networkTimeout = helpers.IntSecondDefault(teleConfig.NetworkTimeoutSec, defaultNetworkTimeout)
	if self.networkTimeout < 1*time.Second {
		self.networkTimeout = 1 * time.Second
	}
	connectTimeout := self.networkTimeout * 3
	keepaliveTimeout := helpers.IntSecondDefault(teleConfig.KeepaliveSec, self.networkTimeout/2)

	tlsconf := new(tls.Config)
	if teleConfig.TlsCaFile != "" {
		tlsconf.RootCAs = x509.NewCertPool()
		cabytes, err := ioutil.ReadFile(teleConfig.TlsCaFile)
		if err != nil {
			return errors.Annotatef(err, "tele: tls_ca_file=%s", teleConfig.TlsCaFile)
		}
		tlsconf.RootCAs.AppendCertsFromPEM(cabytes)
	}
	self.mopt = mqtt.NewClientOptions().
		AddBroker(teleConfig.MqttBroker).
		SetAutoReconnect(true).
		SetBinaryWill(self.topicState, willPayload, 1, true).
		SetCleanSession(false).
		SetClientID(clientId).
		SetConnectTimeout(connectTimeout).
		SetCredentialsProvider(credFun).
		SetKeepAlive(keepaliveTimeout).
		SetMaxReconnectInterval(connectTimeout).
		SetOrderMatters(false).
		SetPingTimeout(self.networkTimeout).
		SetTLSConfig(tlsconf).
		SetWriteTimeout(self.networkTimeout)
	self.m = mqtt.NewClient(self.mopt)

	// network may be down now, AutoReconnect keeps trying in background
	t := self.m.Connect()
	if err := self.tokenWait(t, "connect"); err != nil {
		self.log.Errorf("tele: initial connect err=%v", err)
	}
	return nil
}

func (self *transportMqtt) SendState(payload []byte) bool {
	t := self.m.Publish(self.topicState, 1, true, payload)
	return self.tokenWait(t, "publish state") == nil
}

func (self *transportMqtt) Close() {
	self.m.Disconnect(uint(self.networkTimeout / time.Millisecond))
}

func (self *transportMqtt) tokenWait(t mqtt.Token, tag string) error {
	if !t.WaitTimeout(self.networkTimeout) {
		return errors.Errorf("tele: %s timeout", tag)
	}
	if err := t.Error(); err != nil {
		return errors.Annotatef(err, "tele: %s", tag)
	}
	return nil
}
