// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package mqttbridge republishes the sensor core's latest samples onto
// MQTT as retained JSON, one goroutine per modality so a slow publish on
// one topic never delays another (mirrors the registry's own
// per-modality isolation). Grounded on the teacher's
// internal/app/imu_producer.go publish-loop idiom
// (mqtt.NewClientOptions/AddBroker/SetClientID, ticker-driven publish,
// json.Marshal, retained QoS publish with token.Wait()/token.Error()).
package mqttbridge

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/zed-sensor-core/internal/logging"
	"github.com/relabs-tech/zed-sensor-core/internal/registry"
)

// Topics names the MQTT topic for each republished modality.
type Topics struct {
	IMU     string
	Mag     string
	Env     string
	CamTemp string
}

// Bridge polls a Registry and republishes each modality's latest sample
// to MQTT as it arrives.
type Bridge struct {
	client mqtt.Client
	topics Topics
	qos    byte
	reg    *registry.Registry
	log    logging.Logger

	pollInterval time.Duration

	stop chan struct{}
	wg   sync.WaitGroup
}

// New connects to broker with the given client ID and returns a Bridge
// ready to Start. The connection is established eagerly so configuration
// mistakes surface before Start is called.
func New(broker, clientID string, topics Topics, qos byte, reg *registry.Registry, log logging.Logger, pollInterval time.Duration) (*Bridge, error) {
	if log == nil {
		log = logging.NopLogger{}
	}

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqttbridge: connect: %w", token.Error())
	}

	return &Bridge{
		client:       client,
		topics:       topics,
		qos:          qos,
		reg:          reg,
		log:          log,
		pollInterval: pollInterval,
		stop:         make(chan struct{}),
	}, nil
}

// Start spawns one republish goroutine per modality.
func (b *Bridge) Start() {
	b.wg.Add(4)
	go b.publishIMU()
	go b.publishMag()
	go b.publishEnv()
	go b.publishCamTemp()
}

// Stop halts all republish goroutines and disconnects from the broker.
func (b *Bridge) Stop() {
	close(b.stop)
	b.wg.Wait()
	b.client.Disconnect(250)
}

func (b *Bridge) publishIMU() {
	defer b.wg.Done()
	for {
		v, ok := b.reg.IMU.Poll(b.pollInterval)
		select {
		case <-b.stop:
			return
		default:
		}
		if !ok {
			continue
		}
		b.publish(b.topics.IMU, v)
	}
}

func (b *Bridge) publishMag() {
	defer b.wg.Done()
	for {
		v, ok := b.reg.Mag.Poll(b.pollInterval)
		select {
		case <-b.stop:
			return
		default:
		}
		if !ok {
			continue
		}
		b.publish(b.topics.Mag, v)
	}
}

func (b *Bridge) publishEnv() {
	defer b.wg.Done()
	for {
		v, ok := b.reg.Env.Poll(b.pollInterval)
		select {
		case <-b.stop:
			return
		default:
		}
		if !ok {
			continue
		}
		b.publish(b.topics.Env, v)
	}
}

func (b *Bridge) publishCamTemp() {
	defer b.wg.Done()
	for {
		v, ok := b.reg.CamTemp.Poll(b.pollInterval)
		select {
		case <-b.stop:
			return
		default:
		}
		if !ok {
			continue
		}
		b.publish(b.topics.CamTemp, v)
	}
}

func (b *Bridge) publish(topic string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		b.log.Error("mqttbridge: marshal %s: %v", topic, err)
		return
	}
	if token := b.client.Publish(topic, b.qos, true, payload); token.Wait() && token.Error() != nil {
		b.log.Warn("mqttbridge: publish %s: %v", topic, token.Error())
	}
}
