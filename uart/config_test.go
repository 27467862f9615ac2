package uart

import (
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/google/go-cmp/cmp"
)

func TestConfigYAML(t *testing.T) {
	data := []byte(`
port: /dev/ttyUSB0
baudrate: 115200
icf: 8N1
flowcontrol: rtscts
`)

	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		t.Fatal("unmarshal failed: ", err)
	}

	exp := Config{
		Path:        "/dev/ttyUSB0",
		BaudRate:    115200,
		Framing:     Framing8N1,
		FlowControl: FlowRTSCTS,
	}

	if diff := cmp.Diff(exp, c); diff != "" {
		t.Error("config (-want +got):\n", diff)
	}

	out, err := yaml.Marshal(c)
	if err != nil {
		t.Fatal("marshal failed: ", err)
	}

	var back Config
	if err := yaml.Unmarshal(out, &back); err != nil {
		t.Fatalf("unmarshal of %q failed: %v", out, err)
	}

	if back != c {
		t.Errorf("got %+v back from %q", back, out)
	}
}

func TestConfigYAMLQuoted(t *testing.T) {
	var c Config
	if err := yaml.Unmarshal([]byte("icf: \"7E1\"\nflowcontrol: xonxoff\n"), &c); err != nil {
		t.Fatal("unmarshal failed: ", err)
	}

	if c.Framing != Framing7E1 || c.FlowControl != FlowXONXOFF {
		t.Errorf("got %+v", c)
	}
}

func TestConfigYAMLBadToken(t *testing.T) {
	tests := []string{
		"icf: 8n1\n",
		"flowcontrol: hardware\n",
	}

	for _, test := range tests {
		var c Config
		if err := yaml.Unmarshal([]byte(test), &c); err == nil {
			t.Errorf("%q: expected error, got %+v", test, c)
		}
	}
}
