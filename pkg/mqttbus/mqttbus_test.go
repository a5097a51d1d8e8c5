package mqttbus

import "testing"

func TestQosFor(t *testing.T) {
	cases := []struct {
		topic string
		want  byte
	}{
		{"sensor/weather/temperature", 1},
		{"sensor/weather/#", 1},
		{"event/valve/lawn", 1},
		{"event/valve/#", 1},
		{"sensor/forecast/rain", 0},
		{"event/balance/lawn", 0},
		{" sensor/weather/humidity", 1},
	}
	for _, tc := range cases {
		if got := qosFor(tc.topic); got != tc.want {
			t.Fatalf("qosFor(%q) = %d, want %d", tc.topic, got, tc.want)
		}
	}
}
