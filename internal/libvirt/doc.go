// Package libvirt wraps github.com/digitalocean/go-libvirt for the inventory
// sync: connection management (connect, disconnect, ping) and parsing of
// domain XML into the fields ailsa records about a server.
//
//	client, err := libvirt.Connect("", 0)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	xml, err := client.Libvirt().DomainGetXMLDesc(dom, 0)
//	if err != nil {
//	    return err
//	}
//	spec, err := libvirt.ParseDomainXML(xml)
//
// This package does not define interfaces. Consumers such as internal/vmhost
// declare the subset of *libvirt.Libvirt they use, which keeps them testable
// with hand-written mocks.
package libvirt
