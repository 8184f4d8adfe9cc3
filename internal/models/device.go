package models

import (
	"encoding/json"
	"fmt"
)

// DeviceStatus is whatever the device returns as the payload of a status
// call. It is passed through untouched; only the panel view decodes it.
type DeviceStatus = json.RawMessage

// ConnectivityAnswer is the payload of GET /connectivity.
type ConnectivityAnswer struct {
	APMode     bool                  `json:"APMode" yaml:"ap_mode" mapstructure:"ap_mode"`
	BrokerMQTT bool                  `json:"BrokerMQTT" yaml:"broker_mqtt" mapstructure:"broker_mqtt"`
	WifiSSID   string                `json:"WifiSSID" yaml:"wifi_ssid" mapstructure:"wifi_ssid"`
	Networks   []ConnectivityNetwork `json:"Networks" yaml:"networks" mapstructure:"networks"`
}

type ConnectivityNetwork struct {
	SSID    string `json:"SSID" yaml:"ssid" mapstructure:"ssid"`
	Signal  int    `json:"Signal" yaml:"signal" mapstructure:"signal"`
	Secured bool   `json:"Secured" yaml:"secured" mapstructure:"secured"`
}

// DecodeConnectivity interprets a raw status payload as a connectivity answer.
func DecodeConnectivity(status DeviceStatus) (*ConnectivityAnswer, error) {
	if len(status) == 0 {
		return nil, fmt.Errorf("empty device status")
	}

	var answer ConnectivityAnswer
	if err := json.Unmarshal(status, &answer); err != nil {
		return nil, fmt.Errorf("failed to decode connectivity: %w", err)
	}

	return &answer, nil
}
