// Package sps30 provides the I2C protocol support for the SPS30 particulate
// matter sensor.
package sps30

// Every response from the sensor is a sequence of triplets: two data bytes
// followed by a CRC-8 of those bytes. Multi-byte values are split across
// consecutive triplets, big-endian. Measured values are transferred as
// IEEE-754 single precision floats, one float per two triplets.
//
// Measuring is done by a background Sampler which polls the data-ready
// flag and publishes decoded samples into a bounded Ring. The bus is not
// arbitrated: while sampling is active, callers must not issue other
// commands on the same Driver.
//
// Producer: SPS30 firmware
// Consumer: Driver
