package query

import "github.com/jbweber/ailsa/internal/value"

const (
	text      = value.KindText
	bigint    = value.KindBigInt
	smallint  = value.KindSmallInt
	float     = value.KindFloat
	timestamp = value.KindTimestamp
)

func kinds(k ...value.Kind) []value.Kind {
	return k
}

// Basic family ids.
const (
	AllCustomers ID = iota
	AllServers
	AllZones
	AllBuildDomains
	AllBuildOS
	AllVarients
	AllBuilds
)

// Argument family ids.
const (
	ServerIDOnName ID = iota
	ServerOnName
	ServersOnCustomer
	CustomerIDOnCoid
	CustomerOnCoid
	ZoneIDOnName
	ZoneOnName
	RecordsOnZone
	RecordIDOnZoneHost
	BuildDomainOnName
	BuildIPsOnDomain
	BuildIPOnServer
	BuildOSIDOnAlias
	VarientIDOnAlias
	BuildOnServer
	SSHKeysOnServer
)

// Insert family ids.
const (
	InsertCustomer ID = iota
	InsertServer
	InsertZone
	InsertRecord
	InsertBuildDomain
	InsertBuildIP
	InsertBuildOS
	InsertVarient
	InsertBuild
	InsertSSHKey
)

// Update family ids.
const (
	UpdateServerResources ID = iota
	UpdateZoneSerial
	UpdateZoneValid
	UpdateBuildVarient
)

// Delete family ids.
const (
	DeleteServerOnName ID = iota
	DeleteCustomerOnCoid
	DeleteZoneOnName
	DeleteRecordsOnZone
	DeleteRecordOnID
	DeleteBuildOnServer
	DeleteBuildIPOnServer
	DeleteSSHKeyOnID
	DeleteSSHKeysOnServer
	DeleteVarientOnAlias
)
