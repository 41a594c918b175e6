package main

import "lyra/internal/scanner"

type ScannerService struct {
	scanner *scanner.Service
}

func NewScannerService(scanService *scanner.Service) *ScannerService {
	return &ScannerService{scanner: scanService}
}

func (s *ScannerService) TriggerScan() error {
	return s.scanner.TriggerScan()
}

func (s *ScannerService) CancelScan() {
	s.scanner.CancelScan()
}

func (s *ScannerService) GetStatus() scanner.Status {
	return s.scanner.GetStatus()
}
