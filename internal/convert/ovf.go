package convert

import (
	"fmt"

	"github.com/google/uuid"
)

// ovfTemplate is the minimal OVF 1.0 envelope describing a single
// stream-optimized VMDK disk.
const ovfTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<Envelope xmlns="http://schemas.dmtf.org/ovf/envelope/1"
          xmlns:ovf="http://schemas.dmtf.org/ovf/envelope/1">
  <References>
    <File ovf:id="file1" ovf:href="%s" ovf:size="%d"/>
  </References>
  <DiskSection>
    <Info>Virtual disks</Info>
    <Disk ovf:diskId="%s" ovf:fileRef="file1" ovf:capacity="%d" ovf:format="http://www.vmware.com/interfaces/specifications/vmdk.html#streamOptimized"/>
  </DiskSection>
  <VirtualSystem ovf:id="%s">
    <Info>Exported virtual machine</Info>
    <OperatingSystemSection ovf:id="1">
      <Info>Guest operating system</Info>
    </OperatingSystemSection>
  </VirtualSystem>
</Envelope>
`

// renderOVF returns an OVF descriptor for one VMDK disk member.
// fileSize is the archived VMDK's byte size, capacity the guest-visible
// virtual disk size.
func renderOVF(vmName, vmdkName string, fileSize, capacity int64) string {
	diskID := uuid.NewString()
	return fmt.Sprintf(ovfTemplate, vmdkName, fileSize, diskID, capacity, vmName)
}
