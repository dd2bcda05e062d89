package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// ServiceType tells staff how a receipt must be attended
type ServiceType string

const (
	ServiceTypeNormal       ServiceType = "NORMAL"
	ServiceTypePreferential ServiceType = "PREFERENCIAL"
)

// PaymentPreferentialOnly marks a receipt that only requests priority service
const PaymentPreferentialOnly = "ATENDIMENTO_PREFERENCIAL"

// ParseServiceType accepts the wire names case-insensitively. Empty means NORMAL
func ParseServiceType(s string) (ServiceType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(ServiceTypeNormal):
		return ServiceTypeNormal, nil
	case string(ServiceTypePreferential):
		return ServiceTypePreferential, nil
	}
	return "", fmt.Errorf("unknown service type %q", s)
}

func (t ServiceType) String() string {
	return string(t)
}

// IsValid reports whether t is one of the known service types
func (t ServiceType) IsValid() bool {
	return t == ServiceTypeNormal || t == ServiceTypePreferential
}

func (t ServiceType) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(t))
}

func (t *ServiceType) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*t = ServiceType(str)
	return nil
}

func (t ServiceType) Value() (driver.Value, error) {
	return string(t), nil
}

func (t *ServiceType) Scan(value interface{}) error {
	if value == nil {
		*t = ServiceTypeNormal
		return nil
	}
	switch v := value.(type) {
	case string:
		*t = ServiceType(v)
	case []byte:
		*t = ServiceType(string(v))
	default:
		return fmt.Errorf("cannot scan %T into ServiceType", value)
	}
	return nil
}
