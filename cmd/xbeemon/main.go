package main

import (
	"flag"
	"log"
	"os"

	"github.com/robotalks/xbee.go/pkg/gateway"
)

var (
	mqttURL  = "mqtt://localhost:1883/xbee/"
	encoding = "json"
)

func init() {
	if val := os.Getenv("XBEE_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&encoding, "encoding", encoding, "Message encoding: json or protobuf.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	codec, err := gateway.CodecByName(encoding)
	if err != nil {
		log.Fatalln(err)
	}
	opts, prefix, err := gateway.ClientOptionsFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	q := gateway.NewQueue(opts, prefix)
	if err := q.Connect(); err != nil {
		log.Fatalln(err)
	}
	defer q.Close()

	_, err = q.Subscribe("#", func(topic string, payload []byte) {
		msg := gateway.MessageFor(topic)
		if msg == nil {
			log.Printf("%s: %d bytes", topic, len(payload))
			return
		}
		if err := codec.Unmarshal(payload, msg); err != nil {
			log.Printf("%s: bad message: %v", topic, err)
			return
		}
		out, _ := gateway.JSON.Marshal(msg)
		log.Printf("%s: %s", topic, out)
	})
	if err != nil {
		log.Fatalln(err)
	}
	<-(chan struct{})(nil)
}
