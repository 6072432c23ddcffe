package libvirt

import (
	"strings"
	"testing"
)

const testDomainXML = `<domain type='kvm' id='3'>
  <name>web01</name>
  <uuid>4DEA22B3-1D52-D8F3-2516-782E98AB3FA0</uuid>
  <memory unit='KiB'>4194304</memory>
  <currentMemory unit='KiB'>4194304</currentMemory>
  <vcpu placement='static'>2</vcpu>
  <os>
    <type arch='x86_64' machine='pc-q35-8.2'>hvm</type>
  </os>
  <devices>
    <interface type='bridge'>
      <mac address='BE:EF:0A:00:00:03'/>
      <source bridge='br0'/>
      <model type='virtio'/>
    </interface>
    <interface type='network'>
      <source network='default'/>
    </interface>
  </devices>
</domain>`

func TestParseDomainXML(t *testing.T) {
	spec, err := ParseDomainXML(testDomainXML)
	if err != nil {
		t.Fatalf("ParseDomainXML() error = %v", err)
	}

	if spec.Name != "web01" || spec.Type != "kvm" {
		t.Errorf("name/type = %q/%q", spec.Name, spec.Type)
	}
	if spec.UUID != "4dea22b3-1d52-d8f3-2516-782e98ab3fa0" {
		t.Errorf("UUID = %q", spec.UUID)
	}
	if spec.VCPUs != 2 {
		t.Errorf("VCPUs = %d", spec.VCPUs)
	}
	if spec.MemoryKiB != 4194304 || spec.MemoryGiB() != 4 {
		t.Errorf("memory = %d KiB (%v GiB)", spec.MemoryKiB, spec.MemoryGiB())
	}
	if spec.Arch != "x86_64" || spec.Machine != "pc-q35-8.2" {
		t.Errorf("arch/machine = %q/%q", spec.Arch, spec.Machine)
	}
	// The second interface has no MAC in its definition.
	if len(spec.MACs) != 1 || spec.MACs[0] != "be:ef:0a:00:00:03" {
		t.Errorf("MACs = %v", spec.MACs)
	}
}

func TestParseDomainXML_MemoryUnits(t *testing.T) {
	tests := []struct {
		unit  string
		value string
		want  uint64
	}{
		{unit: "", value: "2048", want: 2048},
		{unit: "MiB", value: "2048", want: 2097152},
		{unit: "GiB", value: "8", want: 8388608},
		{unit: "G", value: "1", want: 1048576},
		{unit: "bytes", value: "1073741824", want: 1048576},
	}

	for _, tt := range tests {
		t.Run(tt.unit, func(t *testing.T) {
			unit := ""
			if tt.unit != "" {
				unit = " unit='" + tt.unit + "'"
			}
			xml := "<domain type='kvm'><name>m</name><memory" + unit + ">" + tt.value + "</memory></domain>"
			spec, err := ParseDomainXML(xml)
			if err != nil {
				t.Fatalf("ParseDomainXML() error = %v", err)
			}
			if spec.MemoryKiB != tt.want {
				t.Errorf("MemoryKiB = %d, want %d", spec.MemoryKiB, tt.want)
			}
		})
	}
}

func TestParseDomainXML_Errors(t *testing.T) {
	tests := []struct {
		name    string
		xml     string
		wantErr string
	}{
		{name: "not xml", xml: "{}", wantErr: "failed to parse"},
		{name: "no name", xml: "<domain type='kvm'></domain>", wantErr: "no name"},
		{name: "bad unit", xml: "<domain type='kvm'><name>m</name><memory unit='parsecs'>1</memory></domain>", wantErr: "unsupported memory unit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDomainXML(tt.xml)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ParseDomainXML() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}
