package query

// Keyed slice literals tie every descriptor to its id constant.

var basicQueries = []Descriptor{
	AllCustomers: {
		Name:    "ALL_CUSTOMERS",
		SQL:     "SELECT name, city, coid FROM customer ORDER BY coid",
		Results: kinds(text, text, text),
	},
	AllServers: {
		Name: "ALL_SERVERS",
		SQL: "SELECT s.name, s.make, s.model, s.vendor, s.uuid, c.coid, s.vcpus, s.memory_gib " +
			"FROM server s LEFT JOIN customer c ON s.cust_id = c.cust_id ORDER BY s.name",
		Results: kinds(text, text, text, text, text, text, smallint, float),
	},
	AllZones: {
		Name:    "ALL_ZONES",
		SQL:     "SELECT name, pri_dns, sec_dns, serial, valid FROM zones ORDER BY name",
		Results: kinds(text, text, text, bigint, text),
	},
	AllBuildDomains: {
		Name: "ALL_BUILD_DOMAINS",
		SQL: "SELECT domain, start_ip, end_ip, netmask, gateway, ns, config_ntp, ntp_server " +
			"FROM build_domain ORDER BY domain",
		Results: kinds(text, bigint, bigint, bigint, bigint, bigint, smallint, text),
	},
	AllBuildOS: {
		Name:    "ALL_BUILD_OS",
		SQL:     "SELECT alias, os, os_version, arch FROM build_os ORDER BY alias, os_version, arch",
		Results: kinds(text, text, text, text),
	},
	AllVarients: {
		Name:    "ALL_VARIENTS",
		SQL:     "SELECT varient, valias FROM varient ORDER BY varient",
		Results: kinds(text, text),
	},
	AllBuilds: {
		Name: "ALL_BUILDS",
		SQL: "SELECT s.name, b.mac_addr, v.varient, o.alias, o.os_version, o.arch, b.mtime " +
			"FROM build b " +
			"JOIN server s ON b.server_id = s.server_id " +
			"JOIN varient v ON b.varient_id = v.varient_id " +
			"JOIN build_os o ON b.os_id = o.os_id " +
			"ORDER BY s.name",
		Results: kinds(text, text, text, text, text, text, timestamp),
	},
}

var argumentQueries = []Descriptor{
	ServerIDOnName: {
		Name:    "SERVER_ID_ON_NAME",
		SQL:     "SELECT server_id FROM server WHERE name = ?",
		Params:  kinds(text),
		Results: kinds(bigint),
	},
	ServerOnName: {
		Name: "SERVER_ON_NAME",
		SQL: "SELECT s.name, s.make, s.model, s.vendor, s.uuid, c.coid, s.vcpus, s.memory_gib, s.ctime, s.mtime " +
			"FROM server s LEFT JOIN customer c ON s.cust_id = c.cust_id WHERE s.name = ?",
		Params:  kinds(text),
		Results: kinds(text, text, text, text, text, text, smallint, float, timestamp, timestamp),
	},
	ServersOnCustomer: {
		Name: "SERVERS_ON_CUSTOMER",
		SQL: "SELECT s.name, s.make, s.model, s.vendor FROM server s " +
			"JOIN customer c ON s.cust_id = c.cust_id WHERE c.coid = ? ORDER BY s.name",
		Params:  kinds(text),
		Results: kinds(text, text, text, text),
	},
	CustomerIDOnCoid: {
		Name:    "CUSTOMER_ID_ON_COID",
		SQL:     "SELECT cust_id FROM customer WHERE coid = ?",
		Params:  kinds(text),
		Results: kinds(bigint),
	},
	CustomerOnCoid: {
		Name:    "CUSTOMER_ON_COID",
		SQL:     "SELECT name, address, city, county, postcode, coid, ctime FROM customer WHERE coid = ?",
		Params:  kinds(text),
		Results: kinds(text, text, text, text, text, text, timestamp),
	},
	ZoneIDOnName: {
		Name:    "ZONE_ID_ON_NAME",
		SQL:     "SELECT id FROM zones WHERE name = ?",
		Params:  kinds(text),
		Results: kinds(bigint),
	},
	ZoneOnName: {
		Name: "ZONE_ON_NAME",
		SQL: "SELECT name, pri_dns, sec_dns, serial, refresh, retry, expire, ttl, valid, mtime " +
			"FROM zones WHERE name = ?",
		Params:  kinds(text),
		Results: kinds(text, text, text, bigint, bigint, bigint, bigint, bigint, text, timestamp),
	},
	RecordsOnZone: {
		Name: "RECORDS_ON_ZONE",
		SQL: "SELECT r.id, r.host, r.type, r.protocol, r.service, r.pri, r.destination FROM records r " +
			"JOIN zones z ON r.zone = z.id WHERE z.name = ? ORDER BY r.type, r.host, r.id",
		Params:  kinds(text),
		Results: kinds(bigint, text, text, text, text, smallint, text),
	},
	RecordIDOnZoneHost: {
		Name:    "RECORD_ID_ON_ZONE_HOST",
		SQL:     "SELECT id FROM records WHERE zone = ? AND host = ? AND type = ? AND destination = ?",
		Params:  kinds(bigint, text, text, text),
		Results: kinds(bigint),
	},
	BuildDomainOnName: {
		Name:    "BUILD_DOMAIN_ON_NAME",
		SQL:     "SELECT bd_id, start_ip, end_ip, netmask, gateway, ns FROM build_domain WHERE domain = ?",
		Params:  kinds(text),
		Results: kinds(bigint, bigint, bigint, bigint, bigint, bigint),
	},
	BuildIPsOnDomain: {
		Name:    "BUILD_IPS_ON_DOMAIN",
		SQL:     "SELECT ip FROM build_ip WHERE bd_id = ? ORDER BY ip",
		Params:  kinds(bigint),
		Results: kinds(bigint),
	},
	BuildIPOnServer: {
		Name:    "BUILD_IP_ON_SERVER",
		SQL:     "SELECT ip_id, ip, hostname, domainname FROM build_ip WHERE server_id = ?",
		Params:  kinds(bigint),
		Results: kinds(bigint, bigint, text, text),
	},
	BuildOSIDOnAlias: {
		Name:    "BUILD_OS_ID_ON_ALIAS",
		SQL:     "SELECT os_id FROM build_os WHERE alias = ? AND os_version = ? AND arch = ?",
		Params:  kinds(text, text, text),
		Results: kinds(bigint),
	},
	VarientIDOnAlias: {
		Name:    "VARIENT_ID_ON_ALIAS",
		SQL:     "SELECT varient_id FROM varient WHERE valias = ? OR varient = ?",
		Params:  kinds(text, text),
		Results: kinds(bigint),
	},
	BuildOnServer: {
		Name: "BUILD_ON_SERVER",
		SQL: "SELECT s.name, b.mac_addr, b.net_int, v.varient, o.alias, o.os_version, o.arch, " +
			"i.ip, i.hostname, i.domainname, d.netmask, d.gateway, d.ns " +
			"FROM build b " +
			"JOIN server s ON b.server_id = s.server_id " +
			"JOIN varient v ON b.varient_id = v.varient_id " +
			"JOIN build_os o ON b.os_id = o.os_id " +
			"JOIN build_ip i ON b.ip_id = i.ip_id " +
			"JOIN build_domain d ON i.bd_id = d.bd_id " +
			"WHERE s.name = ?",
		Params:  kinds(text),
		Results: kinds(text, text, text, text, text, text, text, bigint, text, text, bigint, bigint, bigint),
	},
	SSHKeysOnServer: {
		Name:    "SSH_KEYS_ON_SERVER",
		SQL:     "SELECT key_id, key_type, pubkey, comment FROM build_sshkey WHERE server_id = ? ORDER BY key_id",
		Params:  kinds(bigint),
		Results: kinds(bigint, text, text, text),
	},
}

var insertQueries = []Descriptor{
	InsertCustomer: {
		Name: "INSERT_CUSTOMER",
		SQL: "INSERT INTO customer (name, address, city, county, postcode, coid, ctime, mtime) " +
			"VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		Params: kinds(text, text, text, text, text, text, timestamp, timestamp),
	},
	InsertServer: {
		Name: "INSERT_SERVER",
		SQL: "INSERT INTO server (name, make, model, vendor, uuid, cust_id, vcpus, memory_gib, ctime, mtime) " +
			"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		Params: kinds(text, text, text, text, text, bigint, smallint, float, timestamp, timestamp),
	},
	InsertZone: {
		Name: "INSERT_ZONE",
		SQL: "INSERT INTO zones (name, pri_dns, sec_dns, serial, refresh, retry, expire, ttl, valid, mtime) " +
			"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		Params: kinds(text, text, text, bigint, bigint, bigint, bigint, bigint, text, timestamp),
	},
	InsertRecord: {
		Name: "INSERT_RECORD",
		SQL: "INSERT INTO records (zone, host, type, protocol, service, pri, destination, valid, mtime) " +
			"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		Params: kinds(bigint, text, text, text, text, smallint, text, text, timestamp),
	},
	InsertBuildDomain: {
		Name: "INSERT_BUILD_DOMAIN",
		SQL: "INSERT INTO build_domain (domain, start_ip, end_ip, netmask, gateway, ns, config_ntp, ntp_server, mtime) " +
			"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		Params: kinds(text, bigint, bigint, bigint, bigint, bigint, smallint, text, timestamp),
	},
	InsertBuildIP: {
		Name: "INSERT_BUILD_IP",
		SQL: "INSERT INTO build_ip (ip, hostname, domainname, bd_id, server_id, mtime) " +
			"VALUES (?, ?, ?, ?, ?, ?)",
		Params: kinds(bigint, text, text, bigint, bigint, timestamp),
	},
	InsertBuildOS: {
		Name:   "INSERT_BUILD_OS",
		SQL:    "INSERT INTO build_os (os, os_version, alias, arch, mtime) VALUES (?, ?, ?, ?, ?)",
		Params: kinds(text, text, text, text, timestamp),
	},
	InsertVarient: {
		Name:   "INSERT_VARIENT",
		SQL:    "INSERT INTO varient (varient, valias, mtime) VALUES (?, ?, ?)",
		Params: kinds(text, text, timestamp),
	},
	InsertBuild: {
		Name: "INSERT_BUILD",
		SQL: "INSERT INTO build (mac_addr, net_int, varient_id, os_id, ip_id, server_id, mtime) " +
			"VALUES (?, ?, ?, ?, ?, ?, ?)",
		Params: kinds(text, text, bigint, bigint, bigint, bigint, timestamp),
	},
	InsertSSHKey: {
		Name:   "INSERT_SSH_KEY",
		SQL:    "INSERT INTO build_sshkey (server_id, key_type, pubkey, comment, mtime) VALUES (?, ?, ?, ?, ?)",
		Params: kinds(bigint, text, text, text, timestamp),
	},
}

var updateQueries = []Descriptor{
	UpdateServerResources: {
		Name:   "UPDATE_SERVER_RESOURCES",
		SQL:    "UPDATE server SET vcpus = ?, memory_gib = ?, uuid = ?, mtime = ? WHERE name = ?",
		Params: kinds(smallint, float, text, timestamp, text),
	},
	UpdateZoneSerial: {
		Name:   "UPDATE_ZONE_SERIAL",
		SQL:    "UPDATE zones SET serial = ?, mtime = ? WHERE id = ?",
		Params: kinds(bigint, timestamp, bigint),
	},
	UpdateZoneValid: {
		Name:   "UPDATE_ZONE_VALID",
		SQL:    "UPDATE zones SET valid = ?, mtime = ? WHERE name = ?",
		Params: kinds(text, timestamp, text),
	},
	UpdateBuildVarient: {
		Name:   "UPDATE_BUILD_VARIENT",
		SQL:    "UPDATE build SET varient_id = ?, mtime = ? WHERE server_id = ?",
		Params: kinds(bigint, timestamp, bigint),
	},
}

var deleteQueries = []Descriptor{
	DeleteServerOnName: {
		Name:   "DELETE_SERVER_ON_NAME",
		SQL:    "DELETE FROM server WHERE name = ?",
		Params: kinds(text),
	},
	DeleteCustomerOnCoid: {
		Name:   "DELETE_CUSTOMER_ON_COID",
		SQL:    "DELETE FROM customer WHERE coid = ?",
		Params: kinds(text),
	},
	DeleteZoneOnName: {
		Name:   "DELETE_ZONE_ON_NAME",
		SQL:    "DELETE FROM zones WHERE name = ?",
		Params: kinds(text),
	},
	DeleteRecordsOnZone: {
		Name:   "DELETE_RECORDS_ON_ZONE",
		SQL:    "DELETE FROM records WHERE zone = ?",
		Params: kinds(bigint),
	},
	DeleteRecordOnID: {
		Name:   "DELETE_RECORD_ON_ID",
		SQL:    "DELETE FROM records WHERE id = ?",
		Params: kinds(bigint),
	},
	DeleteBuildOnServer: {
		Name:   "DELETE_BUILD_ON_SERVER",
		SQL:    "DELETE FROM build WHERE server_id = ?",
		Params: kinds(bigint),
	},
	DeleteBuildIPOnServer: {
		Name:   "DELETE_BUILD_IP_ON_SERVER",
		SQL:    "DELETE FROM build_ip WHERE server_id = ?",
		Params: kinds(bigint),
	},
	DeleteSSHKeyOnID: {
		Name:   "DELETE_SSH_KEY_ON_ID",
		SQL:    "DELETE FROM build_sshkey WHERE key_id = ? AND server_id = ?",
		Params: kinds(bigint, bigint),
	},
	DeleteSSHKeysOnServer: {
		Name:   "DELETE_SSH_KEYS_ON_SERVER",
		SQL:    "DELETE FROM build_sshkey WHERE server_id = ?",
		Params: kinds(bigint),
	},
	DeleteVarientOnAlias: {
		Name:   "DELETE_VARIENT_ON_ALIAS",
		SQL:    "DELETE FROM varient WHERE valias = ?",
		Params: kinds(text),
	},
}
