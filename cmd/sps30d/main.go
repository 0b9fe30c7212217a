package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"log"

	"github.com/golang/glog"

	"github.com/robotalks/sps30.go/pkg/env"
	fx "github.com/robotalks/sps30.go/pkg/framework"
	"github.com/robotalks/sps30.go/pkg/mqtt"
	"github.com/robotalks/sps30.go/pkg/sps30"
)

func init() {
	sps30.SetupFlags()
	env.SetupFlags()
}

func identify(d *sps30.Driver) (info mqtt.DeviceInfo) {
	var err error
	if info.FirmwareVersion, err = d.FirmwareVersion(); err != nil {
		glog.Warningf("read firmware version error: %v", err)
	}
	if info.ProductType, err = d.ProductType(); err != nil {
		glog.Warningf("read product type error: %v", err)
	}
	if info.SerialNumber, err = d.SerialNumber(); err != nil {
		glog.Warningf("read serial number error: %v", err)
	}
	log.Printf("Firmware version: %s", info.FirmwareVersion)
	log.Printf("Product type: %s", info.ProductType)
	log.Printf("Serial number: %s", info.SerialNumber)
	if status, err := d.ReadStatusRegister(); err != nil {
		glog.Warningf("read status register error: %v", err)
	} else if !status.OK() {
		glog.Warningf("device status: %s", status)
	}
	return
}

func main() {
	flag.Parse()
	defer glog.Flush()

	drv, err := sps30.Default().Open()
	if err != nil {
		log.Fatalln(err)
	}
	e := env.NewConfig().MustNewEnv(drv, identify(drv))

	runner := fx.NewRunner().HandleSignals()
	if err := drv.StartMeasurement(runner.Context); err != nil {
		log.Fatalln(err)
	}
	runner.Go(fx.NamedRun("loop", fx.NewLoop().Add(e)))
	if err := runner.Wait(); err != nil {
		glog.Errorf("stopped with error: %v", err)
	}
	if err := drv.Close(); err != nil {
		glog.Errorf("close error: %v", err)
	}
}
