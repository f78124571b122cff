package models

import "time"

// Switch is provisioned outside this service and only read here.
type Switch struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	IPv4     string `gorm:"column:ipv4;uniqueIndex" json:"ipv4"`
	Hostname string `json:"hostname"`
}

func (Switch) TableName() string { return "switch" }

// Port is one physical Ethernet interface of a switch. Number is the
// interface index. A port that learned several MACs keeps only the last
// one written.
type Port struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SwitchID  uint      `gorm:"uniqueIndex:idx_port_switch_number;not null" json:"switch_id"`
	Number    int       `gorm:"uniqueIndex:idx_port_switch_number;not null" json:"number"`
	Status    bool      `json:"status"`
	Lockable  bool      `gorm:"default:true" json:"lockable"`
	HostMAC   *string   `json:"host_mac"`
	HostIP    *string   `json:"host_ip"`
	HostName  *string   `json:"host_name"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Port) TableName() string { return "port" }

// ScheduledRevert records the at(1) job queued to unblock one interface, so
// a later process can find and remove it.
type ScheduledRevert struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	SwitchIP string    `gorm:"uniqueIndex:idx_revert_port;not null" json:"switch_ip"`
	IfIndex  int       `gorm:"uniqueIndex:idx_revert_port;not null" json:"if_index"`
	JobID    string    `gorm:"not null" json:"job_id"`
	FireAt   time.Time `json:"fire_at"`
}

func (ScheduledRevert) TableName() string { return "scheduled_revert" }
