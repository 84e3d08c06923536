// Package devices is the plugin registry for hardware authentication
// devices.
//
// Plugins enumerate connected devices and open sessions that derive wallet
// credentials. Enumeration order across plugins and devices is not guaranteed
// stable between runs; callers that pick "the first" device are accepting that
// nondeterminism. The udev plugin crawls existing hidraw devices on Linux.
package devices
