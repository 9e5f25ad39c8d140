// Package net shares a read-only view of the board with other devices on
// the local network.
package net

import (
	"log"
	"net"
	"strconv"
)

// GetOutgoingIP finds the local address other devices should use to reach
// this host.
func GetOutgoingIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		// No route to the internet: pick an interface address instead.
		return interfaceIP()
	}
	defer conn.Close()

	return conn.LocalAddr().(*net.UDPAddr).IP.String(), nil
}

func interfaceIP() (string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "", err
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, _ := iface.Addrs()
		for _, a := range addrs {
			if ipnet, ok := a.(*net.IPNet); ok && ipnet.IP.To4() != nil {
				return ipnet.IP.String(), nil
			}
		}
	}
	log.Println("[MIRROR] No suitable local IP found, falling back to loopback")
	return "127.0.0.1", nil
}

// MirrorURL is the address viewers open to watch the board.
func MirrorURL(port int) string {
	ip, err := GetOutgoingIP()
	if err != nil {
		ip = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(ip, strconv.Itoa(port)) + "/snapshot"
}
