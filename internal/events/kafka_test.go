package events

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFareQuotedEvent_JSONShape(t *testing.T) {
	data, err := json.Marshal(FareQuotedEvent{
		QuoteID:        "q1",
		Source:         "local",
		Pickup:         LatLng{Lat: 1, Lng: 2},
		Dropoff:        LatLng{Lat: 3, Lng: 4},
		DistanceKm:     10,
		PassengerCount: 1,
		Fare:           18.5,
		Currency:       "EUR",
	})
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "q1", m["quote_id"])
	assert.Equal(t, 18.5, m["fare"])
	assert.NotContains(t, m, "country")
}

func TestKafkaPublisher_Publish(t *testing.T) {
	brokers := os.Getenv("TAXIFARE_KAFKA_BROKERS")
	if brokers == "" {
		t.Skip("TAXIFARE_KAFKA_BROKERS not set; skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	topic := "fare.quoted.test"
	p := NewKafkaPublisher(strings.Split(brokers, ","))
	defer p.Close()

	require.NoError(t, p.Publish(ctx, topic, "q-test", FareQuotedEvent{QuoteID: "q-test", Fare: 1}))

	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: strings.Split(brokers, ","),
		Topic:   topic,
		GroupID: "taxifare-test",
	})
	defer r.Close()

	msg, err := r.ReadMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "q-test", string(msg.Key))
}
